// Package graph provides GraphWriter implementations that persist canonical
// payloads to the knowledge graph backend.
package graph

// Observation predicates define the triple attributes emitted for one
// normalized observation entity.
const (
	// PredicateObservationType classifies how the observation was
	// collected (survey, self_report, sensor, ...).
	PredicateObservationType = "semsurvey.observation.type"

	// PredicateObservationValue is the normalized value.
	PredicateObservationValue = "semsurvey.observation.value"

	// PredicateObservationUnits names the unit of the value.
	PredicateObservationUnits = "semsurvey.observation.units"

	// PredicateObservationModality is the choice modality, when the
	// observation targets a choice concept.
	PredicateObservationModality = "semsurvey.observation.choice_modality"

	// PredicateObservationDomain is the chance domain, when the
	// observation targets a chance concept.
	PredicateObservationDomain = "semsurvey.observation.chance_domain"

	// PredicateObservationRecordedAt is the RFC3339 recording timestamp.
	PredicateObservationRecordedAt = "semsurvey.observation.recorded_at"
)

// Target predicates link an observation entity to the ontology entity it
// is about.
const (
	// PredicateTargetType is "choice" or "chance".
	PredicateTargetType = "semsurvey.target.type"

	// PredicateTargetID is the target concept identifier.
	PredicateTargetID = "semsurvey.target.id"
)

// TripleSource identifies this pipeline as the origin of emitted triples.
const TripleSource = "semsurvey.ingest"
