package graph

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semsurvey/payload"
)

func TestObservationEntityID(t *testing.T) {
	p := samplePayload()

	id := ObservationEntityID(p)
	assert.True(t, strings.HasPrefix(id, "semsurvey.local.observation.choice.sleep_hygiene."))

	// IDs are unique per call.
	assert.NotEqual(t, id, ObservationEntityID(p))

	// Missing target falls back to placeholders.
	bare := ObservationEntityID(&payload.Payload{})
	assert.True(t, strings.HasPrefix(bare, "semsurvey.local.observation.unknown.unknown."))
}

func findTriple(triples []message.Triple, predicate string) (message.Triple, bool) {
	for _, tr := range triples {
		if tr.Predicate == predicate {
			return tr, true
		}
	}
	return message.Triple{}, false
}

func TestTriples(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	p := samplePayload()
	p.Observation.Units = "litres"
	p.Observation.RecordedAt = "2026-03-14T09:00:00Z"
	p.Observation.Metadata = map[string]any{"score": 0.7}

	triples := Triples("entity-1", p, now)
	require.NotEmpty(t, triples)

	for _, tr := range triples {
		assert.Equal(t, "entity-1", tr.Subject)
		assert.Equal(t, TripleSource, tr.Source)
		assert.Equal(t, now, tr.Timestamp)
		assert.Equal(t, 1.0, tr.Confidence)
	}

	obsType, ok := findTriple(triples, PredicateObservationType)
	require.True(t, ok)
	assert.Equal(t, "survey", obsType.Object)

	value, ok := findTriple(triples, PredicateObservationValue)
	require.True(t, ok)
	assert.Equal(t, 0.7, value.Object)

	units, ok := findTriple(triples, PredicateObservationUnits)
	require.True(t, ok)
	assert.Equal(t, "litres", units.Object)

	modality, ok := findTriple(triples, PredicateObservationModality)
	require.True(t, ok)
	assert.Equal(t, "sleep", modality.Object)

	recordedAt, ok := findTriple(triples, PredicateObservationRecordedAt)
	require.True(t, ok)
	assert.Equal(t, "2026-03-14T09:00:00Z", recordedAt.Object)

	score, ok := findTriple(triples, "semsurvey.observation.metadata.score")
	require.True(t, ok)
	assert.Equal(t, 0.7, score.Object)

	targetType, ok := findTriple(triples, PredicateTargetType)
	require.True(t, ok)
	assert.Equal(t, "choice", targetType.Object)

	targetID, ok := findTriple(triples, PredicateTargetID)
	require.True(t, ok)
	assert.Equal(t, "sleep_hygiene", targetID.Object)

	// No chance domain on a choice-target payload.
	_, ok = findTriple(triples, PredicateObservationDomain)
	assert.False(t, ok)
}

func TestTriplesEmptyPayload(t *testing.T) {
	triples := Triples("entity-1", &payload.Payload{}, time.Now())
	assert.Empty(t, triples)
}
