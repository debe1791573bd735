package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	p := &Payload{
		Observation: &Observation{
			ObservationType: "survey",
			Value:           0.7,
			ChoiceModality:  "sleep",
		},
	}

	s := p.String()
	assert.Contains(t, s, `"observation_type":"survey"`)
	assert.Contains(t, s, `"choice_modality":"sleep"`)
	// Absent fragments are omitted entirely.
	assert.NotContains(t, s, "chance")
	assert.NotContains(t, s, "metric")
}

func TestClone(t *testing.T) {
	t.Run("nil payload", func(t *testing.T) {
		var p *Payload
		assert.Nil(t, p.Clone())
	})

	t.Run("deep copy of fragments and metadata", func(t *testing.T) {
		p := &Payload{
			Observation: &Observation{
				ObservationType: "survey",
				Value:           0.7,
				Metadata:        map[string]any{"score": 0.7},
			},
			Target: &Target{Type: TargetChoice, ID: "sleep_hygiene"},
			Choice: &Choice{ID: "sleep_hygiene", Modality: "sleep"},
		}

		clone := p.Clone()
		require.NotSame(t, p, clone)
		require.NotSame(t, p.Observation, clone.Observation)
		assert.Equal(t, p.Observation.Value, clone.Observation.Value)

		clone.Observation.Metadata["score"] = 0.1
		clone.Target.ID = "other"
		assert.Equal(t, 0.7, p.Observation.Metadata["score"])
		assert.Equal(t, "sleep_hygiene", p.Target.ID)
		assert.Nil(t, clone.Chance)
	})
}
