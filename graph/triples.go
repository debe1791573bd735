package graph

import (
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/google/uuid"

	"github.com/c360studio/semsurvey/payload"
)

// ObservationEntityID generates a unique entity ID for one observation.
// Format: semsurvey.local.observation.<target-type>.<target-id>.<uuid>
func ObservationEntityID(p *payload.Payload) string {
	targetType := "unknown"
	targetID := "unknown"
	if p.Target != nil {
		targetType = string(p.Target.Type)
		targetID = p.Target.ID
	}
	return fmt.Sprintf("semsurvey.local.observation.%s.%s.%s", targetType, targetID, uuid.New().String())
}

// Triples flattens a canonical payload into graph triples for one
// observation entity. Metadata keys are emitted under
// semsurvey.observation.metadata.<key>.
func Triples(entityID string, p *payload.Payload, now time.Time) []message.Triple {
	triple := func(predicate string, object any) message.Triple {
		return message.Triple{
			Subject:    entityID,
			Predicate:  predicate,
			Object:     object,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		}
	}

	var triples []message.Triple

	if obs := p.Observation; obs != nil {
		triples = append(triples,
			triple(PredicateObservationType, obs.ObservationType),
			triple(PredicateObservationValue, obs.Value),
		)
		if obs.Units != "" {
			triples = append(triples, triple(PredicateObservationUnits, obs.Units))
		}
		if obs.ChoiceModality != "" {
			triples = append(triples, triple(PredicateObservationModality, obs.ChoiceModality))
		}
		if obs.ChanceDomain != "" {
			triples = append(triples, triple(PredicateObservationDomain, obs.ChanceDomain))
		}
		if obs.RecordedAt != "" {
			triples = append(triples, triple(PredicateObservationRecordedAt, obs.RecordedAt))
		}
		for key, value := range obs.Metadata {
			triples = append(triples, triple("semsurvey.observation.metadata."+key, value))
		}
	}

	if target := p.Target; target != nil {
		triples = append(triples,
			triple(PredicateTargetType, string(target.Type)),
			triple(PredicateTargetID, target.ID),
		)
	}

	return triples
}
