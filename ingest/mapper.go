// Package ingest converts instrument responses into canonical graph payloads
// and enforces vocabulary validation before anything is written.
package ingest

import (
	"time"

	"github.com/c360studio/semsurvey/mapping"
	"github.com/c360studio/semsurvey/payload"
	"github.com/c360studio/semsurvey/vocabulary"
)

// Mapper assembles canonical payloads from raw instrument responses.
// Both registries are injected at construction and shared by reference.
type Mapper struct {
	questions *mapping.Registry
	vocab     *vocabulary.Registry
}

// NewMapper creates a mapper backed by the given registries.
func NewMapper(questions *mapping.Registry, vocab *vocabulary.Registry) *Mapper {
	return &Mapper{questions: questions, vocab: vocab}
}

// MapResponse translates a raw response into an ingestion-ready payload.
//
// recordedAt accepts a time.Time (formatted RFC 3339), an already-formatted
// string (passed through), or nil (omitted); any other type is a mapping
// error. extraMetadata is merged under the transform metadata — transform
// keys win on collision.
//
// Registry lookup failures (mapping.ErrUnknownInstrument /
// mapping.ErrUnknownQuestion) surface as-is; they are configuration
// mismatches, not transform errors.
func (m *Mapper) MapResponse(
	instrumentID, questionID string,
	answer any,
	recordedAt any,
	extraMetadata map[string]any,
) (*payload.Payload, error) {
	question, err := m.questions.Question(instrumentID, questionID)
	if err != nil {
		return nil, err
	}

	// Fail fast on a misconfigured observation type before paying for
	// the transform.
	if err := m.vocab.ValidateObservationType(question.ObservationType); err != nil {
		return nil, err
	}

	value, units, transformMetadata, err := applyTransform(question, answer)
	if err != nil {
		return nil, err
	}

	observation := &payload.Observation{
		ObservationType: question.ObservationType,
		Value:           value,
		ChoiceModality:  question.Target.Modality,
		ChanceDomain:    question.Target.Domain,
		Units:           units,
	}

	metadata := make(map[string]any, len(extraMetadata)+len(transformMetadata))
	for k, v := range extraMetadata {
		metadata[k] = v
	}
	for k, v := range transformMetadata {
		metadata[k] = v
	}
	if len(metadata) > 0 {
		observation.Metadata = metadata
	}

	if recordedAt != nil {
		stamp, err := normalizeTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		observation.RecordedAt = stamp
	}

	p := &payload.Payload{
		Observation: observation,
		Target: &payload.Target{
			Type:     question.Target.Type,
			ID:       question.Target.ID,
			Modality: question.Target.Modality,
			Domain:   question.Target.Domain,
		},
	}

	switch question.Target.Type {
	case payload.TargetChoice:
		p.Choice = &payload.Choice{
			ID:       question.Target.ID,
			Modality: question.Target.Modality,
		}
	case payload.TargetChance:
		p.Chance = &payload.Chance{
			ID:     question.Target.ID,
			Domain: question.Target.Domain,
		}
	default:
		return nil, mappingErrorf("unsupported target type %q", question.Target.Type)
	}

	return p, nil
}

// normalizeTimestamp renders a recorded-at value as RFC 3339. Strings are
// assumed to already be ISO 8601 and pass through untouched.
func normalizeTimestamp(value any) (string, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339), nil
	case *time.Time:
		if v == nil {
			return "", nil
		}
		return v.Format(time.RFC3339), nil
	case string:
		return v, nil
	default:
		return "", mappingErrorf("unsupported timestamp value %v", value)
	}
}
