package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// RESTEngineConfig configures the generic REST translation engine, for
// self-hosted LibreTranslate-style backends.
type RESTEngineConfig struct {
	BaseURL string
	APIKey  string // optional bearer token
	Timeout time.Duration
}

// DefaultRESTEngineConfig returns client defaults.
func DefaultRESTEngineConfig() RESTEngineConfig {
	return RESTEngineConfig{Timeout: 30 * time.Second}
}

// RESTEngine calls a translation service over HTTP JSON.
type RESTEngine struct {
	cfg    RESTEngineConfig
	client *http.Client
}

// NewRESTEngine creates the engine.
func NewRESTEngine(cfg RESTEngineConfig) (*RESTEngine, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("translator: engine base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRESTEngineConfig().Timeout
	}
	return &RESTEngine{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Name implements Engine.
func (e *RESTEngine) Name() string { return "rest" }

type restRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
	Tier       string   `json:"tier"`
}

type restResponse struct {
	Results []EngineResult `json:"results"`
}

// TranslateBatch implements Engine.
func (e *RESTEngine) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string, tier Tier) ([]EngineResult, error) {
	body, err := json.Marshal(restRequest{
		Texts:      texts,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Tier:       string(tier),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrMalformed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var out restResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMalformed, err)
	}
	return out.Results, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, status)
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	default:
		return fmt.Errorf("%w: status %d", ErrMalformed, status)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
