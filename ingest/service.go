package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/semsurvey/mapping"
	"github.com/c360studio/semsurvey/metrics"
	"github.com/c360studio/semsurvey/payload"
	"github.com/c360studio/semsurvey/vocabulary"
)

// GraphWriter persists canonical payloads to the knowledge graph.
// Implementations live in the graph package; the service treats write
// failures as fatal and propagates them to the boundary layer.
type GraphWriter interface {
	// Write persists one payload.
	Write(ctx context.Context, p *payload.Payload) error

	// WriteMany persists a batch. No partial-success contract is
	// defined; callers must assume all-or-nothing unless the writer
	// documents otherwise.
	WriteMany(ctx context.Context, payloads []*payload.Payload) error
}

// Status is the per-item ingestion outcome.
type Status string

const (
	// StatusAccepted means the payload passed validation and was written.
	StatusAccepted Status = "accepted"

	// StatusRejected means the item failed a business rule; the reason
	// says which one.
	StatusRejected Status = "rejected"
)

// ReasonKind classifies rejections. The two kinds are stable: existing
// consumers parse the rendered "<kind>: <detail>" reason string.
type ReasonKind string

const (
	// ReasonMapping marks transform failures: the answer didn't fit the
	// question's rules.
	ReasonMapping ReasonKind = "mapping_error"

	// ReasonVocabulary marks payloads carrying values outside the
	// approved vocabularies.
	ReasonVocabulary ReasonKind = "vocabulary_error"
)

// Reason explains a rejection.
type Reason struct {
	Kind   ReasonKind
	Detail string
}

// String renders the reason in the stable "<kind>: <detail>" form.
func (r *Reason) String() string {
	return string(r.Kind) + ": " + r.Detail
}

// MarshalJSON renders the reason as the stable combined string.
func (r *Reason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON parses the combined "<kind>: <detail>" form back into parts.
func (r *Reason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, detail, found := strings.Cut(s, ": ")
	if !found {
		r.Kind, r.Detail = ReasonKind(s), ""
		return nil
	}
	r.Kind, r.Detail = ReasonKind(kind), detail
	return nil
}

// Result is the definitive per-item outcome of an ingestion attempt.
type Result struct {
	// Status is accepted or rejected.
	Status Status `json:"status"`

	// Payload is the canonical payload. Empty (not nil) when mapping
	// failed before a payload existed; echoed back for diagnostics when
	// vocabulary validation rejected it.
	Payload *payload.Payload `json:"payload"`

	// Reason is present only on rejection.
	Reason *Reason `json:"reason,omitempty"`
}

// Service orchestrates assembly, validation, and persistence. It owns no
// state beyond references to its collaborators.
type Service struct {
	writer  GraphWriter
	mapper  *Mapper
	vocab   *vocabulary.Registry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the rejection audit logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus counters for results and writes.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates an ingestion service. The writer, mapper, and
// vocabulary registry are required; logging defaults to slog.Default().
func NewService(writer GraphWriter, mapper *Mapper, vocab *vocabulary.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		writer: writer,
		mapper: mapper,
		vocab:  vocab,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestQuestionResponse maps one structured question/answer pair and runs
// it through validation and persistence. Transform failures become a
// rejected result, never an error. Registry lookup failures and writer
// failures are returned as errors for the boundary layer to translate.
func (s *Service) IngestQuestionResponse(
	ctx context.Context,
	instrumentID, questionID string,
	answer any,
	recordedAt any,
	metadata map[string]any,
) (*Result, error) {
	p, err := s.mapper.MapResponse(instrumentID, questionID, answer, recordedAt, metadata)
	if err != nil {
		if !IsMappingError(err) {
			// Lookup or configuration mismatch: not recoverable here.
			return nil, err
		}
		reason := &Reason{Kind: ReasonMapping, Detail: err.Error()}
		s.logRejection(reason,
			slog.String("instrument_id", instrumentID),
			slog.String("question_id", questionID),
			slog.Any("answer", answer),
		)
		s.metrics.IncrementResult(string(StatusRejected), string(ReasonMapping))
		return &Result{Status: StatusRejected, Payload: &payload.Payload{}, Reason: reason}, nil
	}

	return s.IngestPayload(ctx, p)
}

// IngestPayload validates one payload and writes it on success. Vocabulary
// violations become a rejected result with the invalid payload echoed back.
// A writer failure is not caught: it propagates so the boundary layer can
// decide on retry policy.
func (s *Service) IngestPayload(ctx context.Context, p *payload.Payload) (*Result, error) {
	if err := s.vocab.Validate(p); err != nil {
		reason := &Reason{Kind: ReasonVocabulary, Detail: err.Error()}
		s.logRejection(reason, slog.String("payload", p.String()))
		s.metrics.IncrementResult(string(StatusRejected), string(ReasonVocabulary))
		return &Result{Status: StatusRejected, Payload: p, Reason: reason}, nil
	}

	start := time.Now()
	if err := s.writer.Write(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.ObserveWrite("single", start)
	s.metrics.IncrementResult(string(StatusAccepted), "")
	return &Result{Status: StatusAccepted, Payload: p}, nil
}

// IngestBatch validates every payload independently and writes the
// survivors together with a single WriteMany call. The returned slice has
// one result per input, in input order; rejections do not affect siblings.
//
// A WriteMany failure is returned alongside the results: by then the
// surviving items have already been marked accepted, so callers must treat
// the error as a writer failure, not a validation failure.
func (s *Service) IngestBatch(ctx context.Context, payloads []*payload.Payload) ([]*Result, error) {
	results := make([]*Result, 0, len(payloads))
	accepted := make([]*payload.Payload, 0, len(payloads))

	for _, p := range payloads {
		if err := s.vocab.Validate(p); err != nil {
			reason := &Reason{Kind: ReasonVocabulary, Detail: err.Error()}
			s.logRejection(reason, slog.String("payload", p.String()))
			s.metrics.IncrementResult(string(StatusRejected), string(ReasonVocabulary))
			results = append(results, &Result{Status: StatusRejected, Payload: p, Reason: reason})
			continue
		}
		accepted = append(accepted, p)
		s.metrics.IncrementResult(string(StatusAccepted), "")
		results = append(results, &Result{Status: StatusAccepted, Payload: p})
	}

	if len(accepted) > 0 {
		start := time.Now()
		if err := s.writer.WriteMany(ctx, accepted); err != nil {
			return results, err
		}
		s.metrics.ObserveWrite("batch", start)
	}

	return results, nil
}

// logRejection records a rejected item with its identifiers for audit.
func (s *Service) logRejection(reason *Reason, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("reason", reason.String()))
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.Warn("ingestion rejected", args...)
}

// IsLookupError reports whether an error returned by
// IngestQuestionResponse was a registry lookup failure. Convenience for
// boundary layers deciding between a client error and a gateway error.
func IsLookupError(err error) bool {
	return mapping.IsLookupError(err)
}
