package server

import (
	"context"
	"net/http"

	"github.com/panelglot/panelglot/internal/cache"
	"github.com/panelglot/panelglot/internal/pagestore"
	"github.com/panelglot/panelglot/internal/pipeline"
)

// pipelineInterface defines the methods needed by the server from a pipeline.
type pipelineInterface interface {
	Translate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Invalidate(pageID string) int
	State(pageID string) pipeline.State
	CacheStats() cache.Stats
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	store       pagestore.Store
	corsOrigin  string
	timeoutSec  int
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	CORSOrigin        string
	TimeoutSec        int
	RateLimitEnabled  bool
	RequestsPerMinute int
}

// TranslateRequest is the JSON body of a page translation request.
type TranslateRequest struct {
	SourceLang string       `json:"source_lang"`
	TargetLang string       `json:"target_lang"`
	Tier       string       `json:"tier,omitempty"`
	Viewport   ViewportSpec `json:"viewport"`
}

// ViewportSpec is the reader's display size for the page.
type ViewportSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TranslateResponse wraps a pipeline result for the API. Status is the
// result status, or "failed" when the pipeline could not produce one.
type TranslateResponse struct {
	Success bool             `json:"success"`
	PageID  string           `json:"page_id"`
	Status  string           `json:"status"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// InvalidateResponse reports how many cached results were dropped.
type InvalidateResponse struct {
	PageID  string `json:"page_id"`
	Dropped int    `json:"dropped"`
}

// HealthResponse reports server health and cache counters.
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version,omitempty"`
	Time    string    `json:"time"`
	Cache   CacheInfo `json:"cache"`
}

// CacheInfo mirrors cache.Stats for the health endpoint.
type CacheInfo struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Coalesced uint64 `json:"coalesced"`
	Corrupt   uint64 `json:"corrupt"`
}

// ErrorResponse is the JSON shape of error replies.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a new translation server instance.
func NewServer(pl pipelineInterface, store pagestore.Store, config Config) *Server {
	s := &Server{
		pipeline:   pl,
		store:      store,
		corsOrigin: config.CORSOrigin,
		timeoutSec: config.TimeoutSec,
	}
	if config.RateLimitEnabled {
		s.rateLimiter = NewRateLimiter(config.RequestsPerMinute)
	}
	return s
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/pages/{id}/translate", s.corsMiddleware(s.rateLimitMiddleware(s.translateHandler)))
	mux.HandleFunc("POST /v1/pages/{id}/invalidate", s.corsMiddleware(s.rateLimitMiddleware(s.invalidateHandler)))
	mux.HandleFunc("GET /v1/pages/{id}/overlay", s.corsMiddleware(s.rateLimitMiddleware(s.overlayHandler)))
	mux.HandleFunc("GET /v1/pages/{id}/state", s.corsMiddleware(s.stateHandler))
	mux.HandleFunc("GET /health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("GET /ws/translate", s.translateWebSocketHandler)
}
