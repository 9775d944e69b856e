package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/overlay"
	"github.com/panelglot/panelglot/internal/pagestore"
	"github.com/panelglot/panelglot/internal/pipeline"
	"github.com/panelglot/panelglot/internal/scheduler"
	"github.com/panelglot/panelglot/internal/translator"
	"github.com/panelglot/panelglot/internal/version"
)

// parseTier normalizes a tier string, passing invalid values through so the
// pipeline's request validation reports them.
func parseTier(s string) translator.Tier {
	t, err := translator.ParseTier(s)
	if err != nil {
		return translator.Tier(s)
	}
	return t
}

// healthHandler returns server health status and cache counters.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.pipeline.CacheStats()
	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Cache: CacheInfo{
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Coalesced: stats.Coalesced,
			Corrupt:   stats.Corrupt,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// translateHandler runs the translation pipeline for a page.
func (s *Server) translateHandler(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")

	var body TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		PageID: pageID,
		Settings: pipeline.Settings{
			SourceLang: body.SourceLang,
			TargetLang: body.TargetLang,
			Tier:       parseTier(body.Tier),
		},
		Viewport: geometry.Size{Width: body.Viewport.Width, Height: body.Viewport.Height},
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	start := time.Now()
	result, err := s.pipeline.Translate(ctx, req)
	duration := time.Since(start)

	s.publishCacheStats()

	if err != nil {
		s.writeTranslateError(w, pageID, err)
		return
	}

	pageRequestsTotal.WithLabelValues("http", string(result.Status)).Inc()
	pageProcessingDuration.WithLabelValues("http").Observe(duration.Seconds())
	pageBubbleCount.Observe(float64(len(result.Bubbles)))

	w.Header().Set("Content-Type", "application/json")
	response := TranslateResponse{
		Success: true,
		PageID:  pageID,
		Status:  string(result.Status),
		Result:  result,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode translate response", "error", err)
	}
}

// writeTranslateError maps pipeline errors onto HTTP semantics. Overload is
// retryable and gets 503; detection failures are a terminal page state and
// reported with 200 so the reader can fall back to the raw image.
func (s *Server) writeTranslateError(w http.ResponseWriter, pageID string, err error) {
	switch {
	case errors.Is(err, scheduler.ErrOverloaded):
		poolRejections.Inc()
		pageRequestsTotal.WithLabelValues("http", "overloaded").Inc()
		w.Header().Set("Retry-After", "2")
		s.writeErrorResponse(w, "Server overloaded, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, pagestore.ErrNotFound):
		pageRequestsTotal.WithLabelValues("http", "not_found").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Page %s not found", pageID), http.StatusNotFound)
	case errors.Is(err, detector.ErrUnavailable), errors.Is(err, detector.ErrTimeout):
		pageRequestsTotal.WithLabelValues("http", "failed").Inc()
		w.Header().Set("Content-Type", "application/json")
		response := TranslateResponse{
			Success: false,
			PageID:  pageID,
			Status:  string(pipeline.StatusFailed),
			Error:   err.Error(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("Failed to encode translate response", "error", err)
		}
	default:
		pageRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	}
}

// invalidateHandler drops cached results for a page.
func (s *Server) invalidateHandler(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	dropped := s.pipeline.Invalidate(pageID)

	w.Header().Set("Content-Type", "application/json")
	response := InvalidateResponse{PageID: pageID, Dropped: dropped}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode invalidate response", "error", err)
	}
}

// stateHandler reports the page's pipeline state.
func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")

	w.Header().Set("Content-Type", "application/json")
	response := map[string]string{
		"page_id": pageID,
		"state":   string(s.pipeline.State(pageID)),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode state response", "error", err)
	}
}

// overlayHandler renders the page with its bubbles as a PNG. Translation
// settings come from query parameters; the viewport defaults to the page's
// own size.
func (s *Server) overlayHandler(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	imageBytes, err := s.store.ImageBytes(ctx, pageID)
	if err != nil {
		if errors.Is(err, pagestore.ErrNotFound) {
			s.writeErrorResponse(w, fmt.Sprintf("Page %s not found", pageID), http.StatusNotFound)
		} else {
			s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		s.writeErrorResponse(w, "Invalid page image", http.StatusInternalServerError)
		return
	}

	viewport := geometry.Size{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if wq := r.URL.Query().Get("width"); wq != "" {
		if v, err := strconv.Atoi(wq); err == nil {
			viewport.Width = v
		}
	}
	if hq := r.URL.Query().Get("height"); hq != "" {
		if v, err := strconv.Atoi(hq); err == nil {
			viewport.Height = v
		}
	}

	req := pipeline.Request{
		PageID: pageID,
		Settings: pipeline.Settings{
			SourceLang: r.URL.Query().Get("source_lang"),
			TargetLang: r.URL.Query().Get("target_lang"),
			Tier:       parseTier(r.URL.Query().Get("tier")),
		},
		Viewport: viewport,
	}

	result, err := s.pipeline.Translate(ctx, req)
	if err != nil {
		s.writeTranslateError(w, pageID, err)
		return
	}

	rendered := overlay.Render(img, result)
	if rendered == nil {
		s.writeErrorResponse(w, "Overlay rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, rendered); err != nil {
		slog.Error("Failed to encode overlay image", "error", err)
	}
}

// requestContext applies the configured per-request timeout.
func (s *Server) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeoutSec <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, time.Duration(s.timeoutSec)*time.Second)
}

// publishCacheStats mirrors cache counters into prometheus gauges.
func (s *Server) publishCacheStats() {
	stats := s.pipeline.CacheStats()
	cacheHitsTotal.Set(float64(stats.Hits))
	cacheMissesTotal.Set(float64(stats.Misses))
	cacheCoalescedTotal.Set(float64(stats.Coalesced))
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
