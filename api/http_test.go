package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semsurvey/ingest"
	"github.com/c360studio/semsurvey/mapping"
	"github.com/c360studio/semsurvey/payload"
	"github.com/c360studio/semsurvey/vocabulary"
)

// memoryWriter records written payloads and optionally fails every call.
type memoryWriter struct {
	written []*payload.Payload
	fail    bool
}

func (m *memoryWriter) Write(_ context.Context, p *payload.Payload) error {
	if m.fail {
		return errors.New("backend unavailable")
	}
	m.written = append(m.written, p)
	return nil
}

func (m *memoryWriter) WriteMany(_ context.Context, ps []*payload.Payload) error {
	if m.fail {
		return errors.New("backend unavailable")
	}
	m.written = append(m.written, ps...)
	return nil
}

func testVocabulary() *vocabulary.Registry {
	return vocabulary.New(vocabulary.Definition{
		ChoiceModalities: []string{"sleep", "hydration"},
		ChanceDomains:    []string{"housing"},
		ObservationTypes: []string{"survey", "self_report"},
		MetricTypes:      []string{"adherence"},
		EffortLevels:     []string{"low", "medium", "high"},
		FacetTypes:       []string{"barrier"},
		Metadata:         map[string]string{"version": "test-1"},
	})
}

func testQuestions() *mapping.Registry {
	return mapping.NewRegistry("test-1", map[string]map[string]*mapping.QuestionInfo{
		"onboarding_survey_v1": {
			"q_sleep_schedule": {
				Prompt:          "How consistent is your sleep schedule?",
				ResponseType:    "likert5",
				ObservationType: "survey",
				Target: mapping.TargetInfo{
					Type:     payload.TargetChoice,
					ID:       "sleep_hygiene",
					Modality: "sleep",
				},
				Transforms: mapping.Transforms{
					ScoreMapping: map[string]float64{
						"1": 0.1, "2": 0.3, "3": 0.5, "4": 0.7, "5": 0.9,
					},
				},
			},
		},
	})
}

func newTestServer(t *testing.T, writer *memoryWriter) *httptest.Server {
	t.Helper()
	vocab := testVocabulary()
	questions := testQuestions()
	service := ingest.NewService(writer, ingest.NewMapper(questions, vocab), vocab)

	mux := http.NewServeMux()
	NewHandler(service, vocab, questions, nil).RegisterHTTPHandlers("ingestion", mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestQuestionResponseEndpoint(t *testing.T) {
	writer := &memoryWriter{}
	server := newTestServer(t, writer)

	t.Run("accepted answer", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/ingestion/question-response", map[string]any{
			"instrument_id": "onboarding_survey_v1",
			"question_id":   "q_sleep_schedule",
			"answer":        4,
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var result ingest.Result
		decodeBody(t, resp, &result)
		assert.Equal(t, ingest.StatusAccepted, result.Status)
		require.NotNil(t, result.Payload.Observation)
		assert.Equal(t, 0.7, result.Payload.Observation.Value)
		assert.Len(t, writer.written, 1)
	})

	t.Run("unmapped answer is rejected not errored", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/ingestion/question-response", map[string]any{
			"instrument_id": "onboarding_survey_v1",
			"question_id":   "q_sleep_schedule",
			"answer":        "never",
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var result ingest.Result
		decodeBody(t, resp, &result)
		assert.Equal(t, ingest.StatusRejected, result.Status)
		require.NotNil(t, result.Reason)
		assert.Equal(t, ingest.ReasonMapping, result.Reason.Kind)
	})

	t.Run("unknown instrument returns 404", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/ingestion/question-response", map[string]any{
			"instrument_id": "nope",
			"question_id":   "q_sleep_schedule",
			"answer":        4,
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing identifiers return 400", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/ingestion/question-response", map[string]any{
			"answer": 4,
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get method not allowed", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ingestion/question-response")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestPayloadEndpoint(t *testing.T) {
	t.Run("vocabulary rejection returns 202 with reason", func(t *testing.T) {
		server := newTestServer(t, &memoryWriter{})
		resp := postJSON(t, server.URL+"/ingestion/payload", map[string]any{
			"payload": map[string]any{
				"observation": map[string]any{
					"observation_type": "bogus",
					"value":            1.0,
				},
			},
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var result ingest.Result
		decodeBody(t, resp, &result)
		assert.Equal(t, ingest.StatusRejected, result.Status)
		require.NotNil(t, result.Reason)
		assert.Equal(t, ingest.ReasonVocabulary, result.Reason.Kind)
	})

	t.Run("writer failure returns 502", func(t *testing.T) {
		server := newTestServer(t, &memoryWriter{fail: true})
		resp := postJSON(t, server.URL+"/ingestion/payload", map[string]any{
			"payload": map[string]any{
				"observation": map[string]any{
					"observation_type": "survey",
					"value":            1.0,
				},
			},
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("missing payload returns 400", func(t *testing.T) {
		server := newTestServer(t, &memoryWriter{})
		resp := postJSON(t, server.URL+"/ingestion/payload", map[string]any{})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBatchEndpoint(t *testing.T) {
	writer := &memoryWriter{}
	server := newTestServer(t, writer)

	resp := postJSON(t, server.URL+"/ingestion/batch", map[string]any{
		"payloads": []map[string]any{
			{"observation": map[string]any{"observation_type": "survey", "value": 0.7}},
			{"observation": map[string]any{"observation_type": "bogus", "value": 0.1}},
			{"observation": map[string]any{"observation_type": "self_report", "value": 1.9}},
		},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var results []*ingest.Result
	decodeBody(t, resp, &results)
	require.Len(t, results, 3)
	assert.Equal(t, ingest.StatusAccepted, results[0].Status)
	assert.Equal(t, ingest.StatusRejected, results[1].Status)
	assert.Equal(t, ingest.StatusAccepted, results[2].Status)
	assert.Len(t, writer.written, 2)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &memoryWriter{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test-1", health.Vocabulary.Version)
	assert.Contains(t, health.Vocabulary.Summary["observation_types"], "survey")
	assert.Equal(t, "test-1", health.QuestionMapping.Version)
	assert.Equal(t, 1, health.QuestionMapping.InstrumentCount)
}
