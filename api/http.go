// Package api exposes the ingestion pipeline over HTTP. The handlers are
// boundary glue: they translate transport payloads into service calls and
// service/writer failures into status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semsurvey/ingest"
	"github.com/c360studio/semsurvey/mapping"
	"github.com/c360studio/semsurvey/payload"
	"github.com/c360studio/semsurvey/vocabulary"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// Handler serves the ingestion endpoints.
type Handler struct {
	service   *ingest.Service
	vocab     *vocabulary.Registry
	questions *mapping.Registry
	logger    *slog.Logger
}

// NewHandler creates an API handler over the ingestion service and the two
// registries (registries are needed only for health reporting).
func NewHandler(service *ingest.Service, vocab *vocabulary.Registry, questions *mapping.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		vocab:     vocab,
		questions: questions,
		logger:    logger,
	}
}

// RegisterHTTPHandlers registers all ingestion HTTP handlers under the given
// prefix. The prefix should be the path segment without a trailing slash
// (e.g. "ingestion"). Handlers are registered as:
//
//	POST <prefix>/question-response
//	POST <prefix>/payload
//	POST <prefix>/batch
//	GET  /health
func (h *Handler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"question-response", h.handleQuestionResponse)
	mux.HandleFunc(prefix+"payload", h.handlePayload)
	mux.HandleFunc(prefix+"batch", h.handleBatch)
	mux.HandleFunc("/health", h.handleHealth)
}

// ----------------------------------------------------------------------------
// POST /ingestion/question-response
// ----------------------------------------------------------------------------

// QuestionResponseRequest is the request body for a structured answer.
type QuestionResponseRequest struct {
	InstrumentID string         `json:"instrument_id"`
	QuestionID   string         `json:"question_id"`
	Answer       any            `json:"answer"`
	RecordedAt   *time.Time     `json:"recorded_at,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// handleQuestionResponse ingests one structured question/answer pair.
// Business-rule rejections still return 202 with a rejected result; only
// lookup mismatches (404) and writer failures (502) become HTTP errors.
func (h *Handler) handleQuestionResponse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req QuestionResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.InstrumentID == "" || req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "instrument_id and question_id are required")
		return
	}

	var recordedAt any
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	result, err := h.service.IngestQuestionResponse(r.Context(),
		req.InstrumentID, req.QuestionID, req.Answer, recordedAt, req.Metadata)
	if err != nil {
		if errors.Is(err, mapping.ErrUnknownInstrument) || errors.Is(err, mapping.ErrUnknownQuestion) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("question response ingestion failed",
			"instrument_id", req.InstrumentID,
			"question_id", req.QuestionID,
			"error", err)
		writeError(w, http.StatusBadGateway, "failed to process question response: "+err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// ----------------------------------------------------------------------------
// POST /ingestion/payload
// ----------------------------------------------------------------------------

// PayloadRequest is the request body for one raw payload.
type PayloadRequest struct {
	Payload *payload.Payload `json:"payload"`
}

func (h *Handler) handlePayload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req PayloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Payload == nil {
		writeError(w, http.StatusBadRequest, "payload is required")
		return
	}

	result, err := h.service.IngestPayload(r.Context(), req.Payload)
	if err != nil {
		h.logger.Error("payload ingestion failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to ingest payload: "+err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// ----------------------------------------------------------------------------
// POST /ingestion/batch
// ----------------------------------------------------------------------------

// BatchRequest is the request body for a batch of raw payloads.
type BatchRequest struct {
	Payloads []*payload.Payload `json:"payloads"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	results, err := h.service.IngestBatch(r.Context(), req.Payloads)
	if err != nil {
		// Validation completed; the writer call failed. Results are
		// discarded because acceptance was never durable.
		h.logger.Error("batch ingestion failed", "items", len(req.Payloads), "error", err)
		writeError(w, http.StatusBadGateway, "failed to ingest batch payloads: "+err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, results)
}

// ----------------------------------------------------------------------------
// GET /health
// ----------------------------------------------------------------------------

// HealthResponse reports the active vocabulary and mapping versions.
type HealthResponse struct {
	Status          string          `json:"status"`
	Vocabulary      VocabularyInfo  `json:"vocabulary"`
	QuestionMapping QuestionMapInfo `json:"question_mapping"`
}

// VocabularyInfo summarises the loaded vocabulary registry.
type VocabularyInfo struct {
	Version string              `json:"version,omitempty"`
	Summary map[string][]string `json:"summary"`
}

// QuestionMapInfo summarises the loaded question mapping registry.
type QuestionMapInfo struct {
	Version         string `json:"version"`
	InstrumentCount int    `json:"instrument_count"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Vocabulary: VocabularyInfo{
			Version: h.vocab.Metadata()["version"],
			Summary: h.vocab.Summary(),
		},
		QuestionMapping: QuestionMapInfo{
			Version:         h.questions.Version(),
			InstrumentCount: len(h.questions.Instruments()),
		},
	})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// errorResponse is the error body shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes the value as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing to do.
		_ = err
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
