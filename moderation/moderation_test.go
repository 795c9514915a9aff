package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, handler http.HandlerFunc) *OpenAIGate {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gate := NewOpenAIGate("test-key")
	gate.BaseURL = srv.URL
	gate.Client = srv.Client()
	return gate
}

func TestClassifyNotFlagged(t *testing.T) {
	gate := newTestGate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req moderationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "best CD rates", req.Input)

		w.Write([]byte(`{"id":"modr-1","results":[{"flagged":false,"categories":{"hate":false}}]}`))
	})

	result, err := gate.Classify(context.Background(), "best CD rates")
	require.NoError(t, err)
	assert.False(t, result.Flagged)
	assert.Empty(t, result.DenialMessage)
}

func TestClassifyFlaggedWithCategoryMessage(t *testing.T) {
	gate := newTestGate(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"flagged":true,"categories":{"illicit":true,"hate":false}}]}`))
	})

	result, err := gate.Classify(context.Background(), "how do I launder money")
	require.NoError(t, err)
	assert.True(t, result.Flagged)
	assert.Equal(t, []string{"illicit"}, result.Categories)
	assert.Contains(t, result.DenialMessage, "illegal activities")
}

func TestClassifyFlaggedUnknownCategoryFallsBack(t *testing.T) {
	gate := newTestGate(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"flagged":true,"categories":{"something-new":true}}]}`))
	})

	result, err := gate.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, result.Flagged)
	assert.Empty(t, result.DenialMessage)
	assert.Equal(t, FallbackDenial, Denial(result))
}

func TestClassifyAPIError(t *testing.T) {
	gate := newTestGate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := gate.Classify(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestClassifyMissingKey(t *testing.T) {
	gate := NewOpenAIGate("")
	_, err := gate.Classify(context.Background(), "x")
	assert.Error(t, err)
}

func TestDenialForOrder(t *testing.T) {
	assert.Equal(t, DenialFor([]string{"self-harm/intent"}), DenialFor([]string{"self-harm", "self-harm/intent"}))
	assert.Empty(t, DenialFor(nil))
}

func TestDisabled(t *testing.T) {
	result, err := Disabled{}.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, result.Flagged)
}
