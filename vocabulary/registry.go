// Package vocabulary loads the closed vocabularies that gate graph ingestion
// and validates payload fragments against them.
package vocabulary

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semsurvey/payload"
)

// Error reports a payload value outside the approved vocabularies.
type Error struct {
	// Field is the classified field, e.g. "choice modality".
	Field string

	// Value is the offending value. Empty when the field was missing.
	Value string

	// Allowed is the sorted list of permitted values, for diagnostics.
	Allowed []string

	// detail holds a pre-rendered message for aggregated violations.
	detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.detail != "" {
		return e.detail
	}
	if e.Value == "" {
		return fmt.Sprintf("missing value for %s", e.Field)
	}
	return fmt.Sprintf("unexpected %s %q, allowed values: %v", e.Field, e.Value, e.Allowed)
}

// joinErrors folds multiple vocabulary violations into a single Error so a
// rejected payload reports every violation at once.
func joinErrors(errs []*Error) *Error {
	if len(errs) == 1 {
		return errs[0]
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return &Error{detail: strings.Join(parts, "; ")}
}

// Registry holds the closed sets of allowed string values. It is immutable
// after load and safe for concurrent use.
type Registry struct {
	choiceModalities map[string]bool
	chanceDomains    map[string]bool
	observationTypes map[string]bool
	metricTypes      map[string]bool
	effortLevels     map[string]bool
	facetTypes       map[string]bool
	metadata         map[string]string
}

// registryFile is the on-disk YAML shape of a vocabulary definition.
type registryFile struct {
	ChoiceModalities []string          `yaml:"choice_modalities"`
	ChanceDomains    []string          `yaml:"chance_domains"`
	ObservationTypes []string          `yaml:"observation_types"`
	MetricTypes      []string          `yaml:"metric_types"`
	EffortLevels     []string          `yaml:"effort_levels"`
	FacetTypes       []string          `yaml:"facet_types"`
	Metadata         map[string]string `yaml:"metadata"`
}

// New builds a registry from explicit value lists. Primarily for tests;
// production code loads from a file.
func New(f Definition) *Registry {
	return &Registry{
		choiceModalities: toSet(f.ChoiceModalities),
		chanceDomains:    toSet(f.ChanceDomains),
		observationTypes: toSet(f.ObservationTypes),
		metricTypes:      toSet(f.MetricTypes),
		effortLevels:     toSet(f.EffortLevels),
		facetTypes:       toSet(f.FacetTypes),
		metadata:         f.Metadata,
	}
}

// Definition carries the six enumeration lists plus free-form metadata.
type Definition struct {
	ChoiceModalities []string
	ChanceDomains    []string
	ObservationTypes []string
	MetricTypes      []string
	EffortLevels     []string
	FacetTypes       []string
	Metadata         map[string]string
}

// LoadFromFile reads a vocabulary definition from a YAML file.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary file %s: %w", path, err)
	}

	return New(Definition{
		ChoiceModalities: file.ChoiceModalities,
		ChanceDomains:    file.ChanceDomains,
		ObservationTypes: file.ObservationTypes,
		MetricTypes:      file.MetricTypes,
		EffortLevels:     file.EffortLevels,
		FacetTypes:       file.FacetTypes,
		Metadata:         file.Metadata,
	}), nil
}

// Metadata returns the free-form metadata block from the definition source.
func (r *Registry) Metadata() map[string]string {
	return r.metadata
}

// require checks a single value against an allowed set.
func (r *Registry) require(value string, allowed map[string]bool, field string) *Error {
	if value == "" {
		return &Error{Field: field}
	}
	if !allowed[value] {
		return &Error{Field: field, Value: value, Allowed: sortedKeys(allowed)}
	}
	return nil
}

// ValidateChoiceModality checks a modality against the choice modality set.
func (r *Registry) ValidateChoiceModality(modality string) error {
	if err := r.require(modality, r.choiceModalities, "choice modality"); err != nil {
		return err
	}
	return nil
}

// ValidateChanceDomain checks a domain against the chance domain set.
func (r *Registry) ValidateChanceDomain(domain string) error {
	if err := r.require(domain, r.chanceDomains, "chance domain"); err != nil {
		return err
	}
	return nil
}

// ValidateObservationType checks an observation type against its set.
func (r *Registry) ValidateObservationType(observationType string) error {
	if err := r.require(observationType, r.observationTypes, "observation type"); err != nil {
		return err
	}
	return nil
}

// ValidateMetricType checks a metric type against its set.
func (r *Registry) ValidateMetricType(metricType string) error {
	if err := r.require(metricType, r.metricTypes, "metric type"); err != nil {
		return err
	}
	return nil
}

// ValidateEffortLevel checks an effort level against its set.
func (r *Registry) ValidateEffortLevel(effortLevel string) error {
	if err := r.require(effortLevel, r.effortLevels, "effort level"); err != nil {
		return err
	}
	return nil
}

// ValidateFacetType checks a facet type against its set.
func (r *Registry) ValidateFacetType(facetType string) error {
	if err := r.require(facetType, r.facetTypes, "facet type"); err != nil {
		return err
	}
	return nil
}

// ValidateObservation checks every vocabulary-classified field of an
// observation fragment. Violations are collected, not short-circuited, so a
// single rejection reports all of them joined by "; ".
func (r *Registry) ValidateObservation(obs *payload.Observation) error {
	var errs []*Error

	if err := r.require(obs.ObservationType, r.observationTypes, "observation type"); err != nil {
		errs = append(errs, err)
	}
	if obs.ChoiceModality != "" {
		if err := r.require(obs.ChoiceModality, r.choiceModalities, "choice modality"); err != nil {
			errs = append(errs, err)
		}
	}
	if obs.ChanceDomain != "" {
		if err := r.require(obs.ChanceDomain, r.chanceDomains, "chance domain"); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// Validate checks every fragment present on the payload. The first failing
// fragment aborts validation; within the observation fragment all violations
// are aggregated.
func (r *Registry) Validate(p *payload.Payload) error {
	if p == nil {
		return nil
	}
	if p.Choice != nil {
		if err := r.ValidateChoiceModality(p.Choice.Modality); err != nil {
			return err
		}
	}
	if p.Chance != nil {
		if err := r.ValidateChanceDomain(p.Chance.Domain); err != nil {
			return err
		}
	}
	if p.Observation != nil {
		if err := r.ValidateObservation(p.Observation); err != nil {
			return err
		}
	}
	if p.Metric != nil {
		if err := r.ValidateMetricType(p.Metric.MetricType); err != nil {
			return err
		}
	}
	if p.Facet != nil {
		if err := r.ValidateFacetType(p.Facet.FacetType); err != nil {
			return err
		}
	}
	if p.Intervention != nil && p.Intervention.EffortLevel != "" {
		if err := r.ValidateEffortLevel(p.Intervention.EffortLevel); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns the sorted contents of every vocabulary set, for health
// reporting and the vocab CLI command.
func (r *Registry) Summary() map[string][]string {
	return map[string][]string{
		"choice_modalities": sortedKeys(r.choiceModalities),
		"chance_domains":    sortedKeys(r.chanceDomains),
		"observation_types": sortedKeys(r.observationTypes),
		"metric_types":      sortedKeys(r.metricTypes),
		"effort_levels":     sortedKeys(r.effortLevels),
		"facet_types":       sortedKeys(r.facetTypes),
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
