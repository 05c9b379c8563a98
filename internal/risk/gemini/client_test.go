package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNA-Coded/RakshaMarg/internal/risk"
	"github.com/DNA-Coded/RakshaMarg/internal/risk/gemini"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
)

func generateReply(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
			},
		},
	}
}

func TestClient_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "contents")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateReply(
			`{"overall_risk_level": "high", "rationale": "long unlit highway stretch"}`,
		))
	}))
	defer server.Close()

	client := gemini.NewClient(gemini.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	assessment, err := client.Classify(context.Background(), routing.Route{
		ID:              "rt_1",
		Summary:         "NH 48",
		DistanceMeters:  1_420_000,
		DurationSeconds: 84_000,
	})
	require.NoError(t, err)

	assert.Equal(t, risk.LevelHigh, assessment.Level)
	assert.Equal(t, "long unlit highway stretch", assessment.Rationale)
	assert.Equal(t, "gemini:gemini-1.5-flash", assessment.Provenance)
}

func TestClient_Classify_CodeFencedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateReply(
			"```json\n{\"overall_risk_level\": \"moderate\", \"rationale\": \"mixed areas\"}\n```",
		))
	}))
	defer server.Close()

	client := gemini.NewClient(gemini.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	assessment, err := client.Classify(context.Background(), routing.Route{ID: "rt_1"})
	require.NoError(t, err)
	assert.Equal(t, risk.LevelModerate, assessment.Level)
}

func TestClient_Classify_UnparseableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateReply("I cannot assess this route."))
	}))
	defer server.Close()

	client := gemini.NewClient(gemini.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	_, err := client.Classify(context.Background(), routing.Route{ID: "rt_1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrUnparseableAssessment)
}

func TestClient_Classify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := gemini.NewClient(gemini.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	_, err := client.Classify(context.Background(), routing.Route{ID: "rt_1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrClassifierUnavailable)
}

func TestClient_Classify_UnknownLevelMapsToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateReply(
			`{"overall_risk_level": "apocalyptic", "rationale": "n/a"}`,
		))
	}))
	defer server.Close()

	client := gemini.NewClient(gemini.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	assessment, err := client.Classify(context.Background(), routing.Route{ID: "rt_1"})
	require.NoError(t, err)
	assert.Equal(t, risk.LevelUnknown, assessment.Level)
}
