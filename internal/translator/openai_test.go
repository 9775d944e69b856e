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

// mockChatServer mimics the OpenAI chat completions endpoint.
func mockChatServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": reply},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIEngineTranslateBatch(t *testing.T) {
	reply := `{"translations":[{"text":"Hello"},{"text":"What happened?","note":"informal"}]}`
	srv := mockChatServer(t, reply, http.StatusOK)
	defer srv.Close()

	engine, err := NewOpenAIEngine(OpenAIEngineConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "openai", engine.Name())

	results, err := engine.TranslateBatch(context.Background(), []string{"こんにちは", "どうしたの?"}, "ja", "en", TierBalanced)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Hello", results[0].TranslatedText)
	assert.Nil(t, results[0].Confidence)
	assert.Equal(t, "informal", results[1].Note)
}

func TestOpenAIEngineMalformedCompletion(t *testing.T) {
	srv := mockChatServer(t, "not json at all", http.StatusOK)
	defer srv.Close()

	engine, err := NewOpenAIEngine(OpenAIEngineConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = engine.TranslateBatch(context.Background(), []string{"a"}, "ja", "en", TierBalanced)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestOpenAIEngineServerErrorIsTransient(t *testing.T) {
	srv := mockChatServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	engine, err := NewOpenAIEngine(OpenAIEngineConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = engine.TranslateBatch(context.Background(), []string{"a"}, "ja", "en", TierBalanced)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestNewOpenAIEngineRequiresKey(t *testing.T) {
	_, err := NewOpenAIEngine(OpenAIEngineConfig{})
	require.Error(t, err)
}
