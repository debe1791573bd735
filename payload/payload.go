// Package payload defines the canonical observation payload written to the
// knowledge graph. Each fragment is a plain struct with optional fields;
// vocabulary validation lives in the vocabulary package.
package payload

import (
	"encoding/json"
	"fmt"
)

// TargetType discriminates the ontology entity an observation is about.
type TargetType string

const (
	// TargetChoice targets a choice concept (a modality the user acts on).
	TargetChoice TargetType = "choice"

	// TargetChance targets a chance concept (a life-domain circumstance).
	TargetChance TargetType = "chance"
)

// Payload is the canonical ingestion payload. Fragments are optional;
// an assembled payload carries observation, target, and exactly one of
// choice or chance matching the target type. Raw payloads received at the
// boundary may carry any subset.
type Payload struct {
	Observation  *Observation  `json:"observation,omitempty"`
	Target       *Target       `json:"target,omitempty"`
	Choice       *Choice       `json:"choice,omitempty"`
	Chance       *Chance       `json:"chance,omitempty"`
	Metric       *Metric       `json:"metric,omitempty"`
	Facet        *Facet        `json:"facet,omitempty"`
	Intervention *Intervention `json:"intervention,omitempty"`
}

// Observation is a normalized measurement derived from one answered question.
type Observation struct {
	// ObservationType classifies how the observation was collected
	// (survey, self_report, sensor, ...). Must exist in the vocabulary.
	ObservationType string `json:"observation_type"`

	// Value is the normalized value: a score for likert/multiple-choice,
	// a float for numeric, the verbatim string for free text.
	Value any `json:"value"`

	// ChoiceModality is copied from the target when the target is a choice.
	ChoiceModality string `json:"choice_modality,omitempty"`

	// ChanceDomain is copied from the target when the target is a chance.
	ChanceDomain string `json:"chance_domain,omitempty"`

	// Units names the unit of Value, when the transform produced one.
	Units string `json:"units,omitempty"`

	// Metadata carries transform details (score, selected option, raw
	// value, conversion factor) merged over any caller-supplied metadata.
	Metadata map[string]any `json:"metadata,omitempty"`

	// RecordedAt is the RFC 3339 timestamp the answer was recorded at.
	RecordedAt string `json:"recorded_at,omitempty"`
}

// Target describes the ontology entity the observation is about.
type Target struct {
	Type     TargetType `json:"type"`
	ID       string     `json:"id"`
	Modality string     `json:"modality,omitempty"`
	Domain   string     `json:"domain,omitempty"`
}

// Choice identifies a choice concept.
type Choice struct {
	ID       string `json:"id"`
	Modality string `json:"modality,omitempty"`
}

// Chance identifies a chance concept.
type Chance struct {
	ID     string `json:"id"`
	Domain string `json:"domain,omitempty"`
}

// Metric is a derived metric fragment.
type Metric struct {
	MetricType string `json:"metric_type"`
	Value      any    `json:"value,omitempty"`
}

// Facet is a qualitative facet fragment (barrier, enabler, ...).
type Facet struct {
	FacetType string `json:"facet_type"`
	Label     string `json:"label,omitempty"`
}

// Intervention is a suggested-intervention fragment.
type Intervention struct {
	ID          string `json:"id,omitempty"`
	EffortLevel string `json:"effort_level,omitempty"`
}

// String renders the payload as compact JSON for logs and diagnostics.
func (p *Payload) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("payload<marshal error: %v>", err)
	}
	return string(data)
}

// Clone returns a deep copy of the payload. Fragment structs are copied;
// observation metadata gets a fresh map so callers can mutate safely.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := &Payload{}
	if p.Observation != nil {
		obs := *p.Observation
		if p.Observation.Metadata != nil {
			obs.Metadata = make(map[string]any, len(p.Observation.Metadata))
			for k, v := range p.Observation.Metadata {
				obs.Metadata[k] = v
			}
		}
		out.Observation = &obs
	}
	if p.Target != nil {
		t := *p.Target
		out.Target = &t
	}
	if p.Choice != nil {
		c := *p.Choice
		out.Choice = &c
	}
	if p.Chance != nil {
		c := *p.Chance
		out.Chance = &c
	}
	if p.Metric != nil {
		m := *p.Metric
		out.Metric = &m
	}
	if p.Facet != nil {
		f := *p.Facet
		out.Facet = &f
	}
	if p.Intervention != nil {
		iv := *p.Intervention
		out.Intervention = &iv
	}
	return out
}
