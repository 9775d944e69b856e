package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPEngineConfig configures the HTTP recognition engine client.
type HTTPEngineConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultHTTPEngineConfig returns client defaults.
func DefaultHTTPEngineConfig() HTTPEngineConfig {
	return HTTPEngineConfig{Timeout: 30 * time.Second}
}

// HTTPEngine calls a remote recognition service over HTTP JSON.
// The service contract mirrors Engine: POST /detect with the image payload,
// response is the detection list.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEngine creates an HTTP-backed recognition engine.
func NewHTTPEngine(cfg HTTPEngineConfig) (*HTTPEngine, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("detector: engine base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPEngineConfig().Timeout
	}
	return &HTTPEngine{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type detectRequest struct {
	Image        string `json:"image"` // base64-encoded image bytes
	LanguageHint string `json:"language_hint,omitempty"`
}

type detectResponse struct {
	Detections []RawDetection `json:"detections"`
}

// DetectText implements Engine.
func (e *HTTPEngine) DetectText(ctx context.Context, imageBytes []byte, languageHint string) ([]RawDetection, error) {
	body, err := json.Marshal(detectRequest{
		Image:        base64.StdEncoding.EncodeToString(imageBytes),
		LanguageHint: languageHint,
	})
	if err != nil {
		return nil, fmt.Errorf("encode detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: engine returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return out.Detections, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
