package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngineConfig configures the chat-completion translation engine.
type OpenAIEngineConfig struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible endpoints
}

// OpenAIEngine translates batches via an OpenAI-compatible chat API.
// The quality tier selects the model through BackendFor.
type OpenAIEngine struct {
	client *openai.Client
}

// NewOpenAIEngine creates the engine.
func NewOpenAIEngine(cfg OpenAIEngineConfig) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("translator: OpenAI API key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEngine{client: openai.NewClientWithConfig(clientCfg)}, nil
}

// Name implements Engine.
func (e *OpenAIEngine) Name() string { return "openai" }

const systemPrompt = `You are a translation engine for comic and manga dialogue.
Translate every element of the user's JSON array from %s to %s.
Keep terminology and character voice consistent across the whole array.
Respond with a JSON object of the form
{"translations":[{"text":"...","note":"..."}]}
with exactly one element per input element, in the same order.
The "note" field is optional and only for brief cultural or wordplay context.`

type chatPayload struct {
	Translations []struct {
		Text string `json:"text"`
		Note string `json:"note,omitempty"`
	} `json:"translations"`
}

// TranslateBatch implements Engine.
func (e *OpenAIEngine) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string, tier Tier) ([]EngineResult, error) {
	input, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: encode batch: %v", ErrMalformed, err)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       BackendFor(tier).Model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, sourceLang, targetLang)},
			{Role: openai.ChatMessageRoleUser, Content: string(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformed)
	}

	var payload chatPayload
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode completion: %v", ErrMalformed, err)
	}

	results := make([]EngineResult, len(payload.Translations))
	for i, tr := range payload.Translations {
		results[i] = EngineResult{TranslatedText: tr.Text, Note: tr.Note}
	}
	return results, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		default:
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
