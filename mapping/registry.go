// Package mapping loads the declarative question registry that maps
// instrument questions onto ontology targets and transform rules.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semsurvey/payload"
)

// ResponseKind enumerates the supported response families.
type ResponseKind string

const (
	// KindLikert covers every likert-family response type. Config data
	// uses suffixed variants (likert5, likert7); any response_type
	// beginning with "likert" belongs to this family.
	KindLikert ResponseKind = "likert"

	// KindMultipleChoice is a single selection from named options.
	KindMultipleChoice ResponseKind = "multiple_choice"

	// KindNumeric is a free numeric answer, optionally unit-converted.
	KindNumeric ResponseKind = "numeric"

	// KindFreeText is verbatim text with static metadata attached.
	KindFreeText ResponseKind = "free_text"

	// KindUnknown marks response types outside the supported families.
	KindUnknown ResponseKind = ""
)

// KindOf classifies a raw response_type string into its family.
func KindOf(responseType string) ResponseKind {
	if strings.HasPrefix(responseType, "likert") {
		return KindLikert
	}
	switch responseType {
	case string(KindMultipleChoice):
		return KindMultipleChoice
	case string(KindNumeric):
		return KindNumeric
	case string(KindFreeText):
		return KindFreeText
	default:
		return KindUnknown
	}
}

// TargetInfo identifies the ontology entity a question observes.
// Exactly one of Modality/Domain is meaningful, matching Type.
type TargetInfo struct {
	Type     payload.TargetType `yaml:"type" json:"type"`
	ID       string             `yaml:"id" json:"id"`
	Modality string             `yaml:"modality,omitempty" json:"modality,omitempty"`
	Domain   string             `yaml:"domain,omitempty" json:"domain,omitempty"`
}

// Transforms holds the per-question rule parameters for converting a raw
// answer into a normalized value.
type Transforms struct {
	// ScoreMapping maps likert answers (stringified) to scores.
	ScoreMapping map[string]float64 `yaml:"score_mapping,omitempty" json:"score_mapping,omitempty"`

	// OptionScores maps multiple-choice option keys to scores.
	OptionScores map[string]float64 `yaml:"option_scores,omitempty" json:"option_scores,omitempty"`

	// ConversionFactor multiplies numeric answers when present.
	ConversionFactor *float64 `yaml:"conversion_factor,omitempty" json:"conversion_factor,omitempty"`

	// InputUnit names the unit the raw answer arrives in.
	InputUnit string `yaml:"input_unit,omitempty" json:"input_unit,omitempty"`

	// OutputUnit names the unit after conversion. Falls back to InputUnit.
	OutputUnit string `yaml:"output_unit,omitempty" json:"output_unit,omitempty"`

	// StoreRaw keeps the raw answer in observation metadata.
	StoreRaw bool `yaml:"store_raw,omitempty" json:"store_raw,omitempty"`

	// Static is attached verbatim to free-text observation metadata,
	// e.g. tagging qualitative answers for later classification.
	Static map[string]any `yaml:"static,omitempty" json:"static,omitempty"`
}

// QuestionInfo is the declarative definition of one instrument question.
// Loaded once at startup and never mutated.
type QuestionInfo struct {
	// Prompt is the display text shown to the user. Not used by the
	// transform logic; kept for diagnostics.
	Prompt string `yaml:"prompt" json:"prompt"`

	// ResponseType is the raw configured kind, e.g. "likert5". Use Kind
	// for dispatch; the verbatim value is kept for diagnostics.
	ResponseType string `yaml:"response_type" json:"response_type"`

	// ObservationType classifies resulting observations. Must exist in
	// the vocabulary registry.
	ObservationType string `yaml:"observation_type" json:"observation_type"`

	// Target is the ontology entity observations are attached to.
	Target TargetInfo `yaml:"target" json:"target"`

	// Transforms holds the rule parameters for this question's kind.
	Transforms Transforms `yaml:"transforms" json:"transforms"`
}

// Kind returns the response family for dispatch.
func (q *QuestionInfo) Kind() ResponseKind {
	return KindOf(q.ResponseType)
}

// Registry owns the instrument → question → QuestionInfo mapping.
// Immutable after load and safe for concurrent use.
type Registry struct {
	version     string
	instruments map[string]map[string]*QuestionInfo
}

// registryFile is the on-disk YAML shape of a question mapping definition.
type registryFile struct {
	Version     string                              `yaml:"version"`
	Instruments map[string]map[string]*QuestionInfo `yaml:"instruments"`
}

// NewRegistry builds a registry from explicit data. Primarily for tests.
func NewRegistry(version string, instruments map[string]map[string]*QuestionInfo) *Registry {
	if instruments == nil {
		instruments = make(map[string]map[string]*QuestionInfo)
	}
	return &Registry{version: version, instruments: instruments}
}

// LoadFromFile reads a question mapping definition from a YAML file.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question mapping file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse question mapping file %s: %w", path, err)
	}

	version := file.Version
	if version == "" {
		version = "unknown"
	}
	return NewRegistry(version, file.Instruments), nil
}

// Version returns the version string of the loaded definition.
func (r *Registry) Version() string {
	return r.version
}

// Question looks up a question definition by instrument and question ID.
func (r *Registry) Question(instrumentID, questionID string) (*QuestionInfo, error) {
	instrument, ok := r.instruments[instrumentID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownInstrument, instrumentID)
	}
	question, ok := instrument[questionID]
	if !ok {
		return nil, fmt.Errorf("%w %q for instrument %q", ErrUnknownQuestion, questionID, instrumentID)
	}
	return question, nil
}

// Target looks up just the target entity for a question.
func (r *Registry) Target(instrumentID, questionID string) (TargetInfo, error) {
	q, err := r.Question(instrumentID, questionID)
	if err != nil {
		return TargetInfo{}, err
	}
	return q.Target, nil
}

// Instruments exposes the full registry for diagnostics and health
// reporting. Callers must not mutate the returned maps.
func (r *Registry) Instruments() map[string]map[string]*QuestionInfo {
	return r.instruments
}
