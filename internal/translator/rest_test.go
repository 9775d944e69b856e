package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTEngineTranslateBatch(t *testing.T) {
	var gotReq restRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/translate", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := restResponse{Results: []EngineResult{
			{TranslatedText: "Hello", Confidence: conf(0.9)},
			{TranslatedText: "Bye", Note: "casual register"},
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	engine, err := NewRESTEngine(RESTEngineConfig{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	results, err := engine.TranslateBatch(context.Background(), []string{"こんにちは", "じゃあね"}, "ja", "en", TierFast)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Hello", results[0].TranslatedText)
	assert.Equal(t, "casual register", results[1].Note)
	assert.Equal(t, []string{"こんにちは", "じゃあね"}, gotReq.Texts)
	assert.Equal(t, "ja", gotReq.SourceLang)
	assert.Equal(t, "en", gotReq.TargetLang)
	assert.Equal(t, "fast", gotReq.Tier)
}

func TestRESTEngineStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusBadRequest, ErrMalformed},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))

		engine, err := NewRESTEngine(RESTEngineConfig{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = engine.TranslateBatch(context.Background(), []string{"a"}, "ja", "en", TierBalanced)
		require.Error(t, err)
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		srv.Close()
	}
}

func TestRESTEngineTransientClassification(t *testing.T) {
	assert.True(t, IsTransient(classifyStatus(http.StatusTooManyRequests)))
	assert.True(t, IsTransient(classifyStatus(http.StatusServiceUnavailable)))
	assert.False(t, IsTransient(classifyStatus(http.StatusUnauthorized)))
	assert.False(t, IsTransient(classifyStatus(http.StatusBadRequest)))
}

func TestNewRESTEngineRequiresBaseURL(t *testing.T) {
	_, err := NewRESTEngine(RESTEngineConfig{})
	require.Error(t, err)
}
