// Package pipeline orchestrates page translation: detect text regions,
// translate them as one batch, reconcile into overlay bubbles, and cache
// the outcome. Engine calls are dispatched through two bounded worker
// pools; concurrent identical requests coalesce onto one computation.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/panelglot/panelglot/internal/cache"
	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/pagestore"
	"github.com/panelglot/panelglot/internal/reconcile"
	"github.com/panelglot/panelglot/internal/scheduler"
	"github.com/panelglot/panelglot/internal/translator"
)

// Config holds pipeline and component settings.
type Config struct {
	Detector   detector.Config
	Translator translator.Config
	Thresholds reconcile.Thresholds
	Scheduler  scheduler.Config
	CacheSize  int
}

// DefaultConfig returns pipeline defaults with component defaults.
func DefaultConfig() Config {
	return Config{
		Detector:   detector.DefaultConfig(),
		Translator: translator.DefaultConfig(),
		Thresholds: reconcile.DefaultThresholds(),
		Scheduler:  scheduler.DefaultConfig(),
		CacheSize:  256,
	}
}

// Pipeline runs page translation end to end.
type Pipeline struct {
	detector   *detector.Detector
	translator *translator.BatchTranslator
	store      pagestore.Store
	sched      *scheduler.Scheduler
	results    *cache.Store[*Result]
	thresholds reconcile.Thresholds

	mu        sync.RWMutex
	states    map[string]State
	observers []func(pageID string, state State)
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg             Config
	detectorEngine  detector.Engine
	translateEngine translator.Engine
	store           pagestore.Store
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectorEngine sets the recognition engine.
func (b *Builder) WithDetectorEngine(e detector.Engine) *Builder {
	b.detectorEngine = e
	return b
}

// WithTranslationEngine sets the translation engine.
func (b *Builder) WithTranslationEngine(e translator.Engine) *Builder {
	b.translateEngine = e
	return b
}

// WithStore sets the page image store.
func (b *Builder) WithStore(s pagestore.Store) *Builder {
	b.store = s
	return b
}

// Build assembles the pipeline and subscribes it to page replacements.
func (b *Builder) Build() (*Pipeline, error) {
	if b.store == nil {
		return nil, fmt.Errorf("pipeline: page store is required")
	}

	det, err := detector.New(b.detectorEngine, b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	tr, err := translator.New(b.translateEngine, b.cfg.Translator)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	sched, err := scheduler.New(b.cfg.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	results, err := cache.New(b.cfg.CacheSize, cache.WithValidator(ValidateResult))
	if err != nil {
		sched.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	p := &Pipeline{
		detector:   det,
		translator: tr,
		store:      b.store,
		sched:      sched,
		results:    results,
		thresholds: b.cfg.Thresholds,
		states:     make(map[string]State),
	}
	b.store.Subscribe(func(pageID string) { p.Invalidate(pageID) })
	return p, nil
}

// Translate returns the overlay result for a page, computing it on first
// request and serving it from cache afterwards. Detection failures and
// scheduler overload are returned as errors and never cached; callers check
// detector.ErrUnavailable / detector.ErrTimeout / scheduler.ErrOverloaded.
func (p *Pipeline) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	imageBytes, err := p.store.ImageBytes(ctx, req.PageID)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", req.PageID, err)
	}
	size, err := decodeSize(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("decode page %s: %w", req.PageID, err)
	}

	sum := sha256.Sum256(imageBytes)
	key := cache.Key{
		PageID:     req.PageID,
		ImageHash:  hex.EncodeToString(sum[:]),
		SourceLang: req.Settings.SourceLang,
		TargetLang: req.Settings.TargetLang,
		Tier:       string(req.Settings.Tier),
	}

	// The computation outlives any single caller: navigating away must not
	// cancel work that coalesced requests (or a returning reader) will use.
	computeCtx := context.WithoutCancel(ctx)

	result, err := p.results.GetOrCompute(ctx, key, func(context.Context) (*Result, error) {
		return p.compute(computeCtx, req, imageBytes, size)
	})
	if err != nil {
		return nil, err
	}
	return result.ForViewport(req.Viewport), nil
}

// compute runs the full detect → translate → reconcile sequence. The result
// is canonical: render space equals source space, viewport mapping happens
// per request.
func (p *Pipeline) compute(ctx context.Context, req Request, imageBytes []byte, size geometry.Size) (*Result, error) {
	p.setState(req.PageID, StateProcessing)
	start := time.Now()

	var regions []detector.TextRegion
	err := p.sched.Detect(ctx, func(ctx context.Context) error {
		var detectErr error
		regions, detectErr = p.detector.Detect(ctx, imageBytes, req.Settings.SourceLang, size)
		return detectErr
	})
	if err != nil {
		p.setState(req.PageID, StateFailed)
		return nil, fmt.Errorf("page %s: %w", req.PageID, err)
	}

	var units []translator.Unit
	degraded := false
	if len(regions) > 0 {
		texts := make([]string, len(regions))
		for i, r := range regions {
			texts[i] = r.Text
		}

		err = p.sched.Translate(ctx, func(ctx context.Context) error {
			var trErr error
			units, trErr = p.translator.Translate(ctx, texts,
				req.Settings.SourceLang, req.Settings.TargetLang, req.Settings.Tier)
			return trErr
		})
		switch {
		case err == nil:
		case isTranslationFailure(err):
			// The batch failed for good; the page still shows OCR-only
			// bubbles instead of failing entirely.
			slog.Warn("Translation batch failed, degrading to OCR-only",
				"page", req.PageID, "error", err)
			units = translator.SentinelBatch(len(regions))
			degraded = true
		default:
			p.setState(req.PageID, StateFailed)
			return nil, fmt.Errorf("page %s: %w", req.PageID, err)
		}
	} else {
		units = []translator.Unit{}
	}

	bubbles, err := reconcile.Reconcile(regions, units, size, size, p.thresholds)
	if err != nil {
		p.setState(req.PageID, StateFailed)
		return nil, fmt.Errorf("page %s: %w", req.PageID, err)
	}

	status := StatusReady
	if degraded || anyFailed(units) {
		status = StatusPartial
	}

	result := &Result{
		Bubbles:    bubbles,
		Settings:   req.Settings,
		Status:     status,
		SourceSize: size,
		Viewport:   size,
		ComputedAt: time.Now().UTC(),
	}

	p.setState(req.PageID, StateReady)
	slog.Info("Page pipeline complete",
		"page", req.PageID, "status", status,
		"regions", len(regions), "bubbles", len(bubbles),
		"duration", time.Since(start))
	return result, nil
}

// Invalidate drops cached results for a page, e.g. after its image bytes
// were replaced.
func (p *Pipeline) Invalidate(pageID string) int {
	dropped := p.results.Invalidate(pageID)
	p.setState(pageID, StateUnprocessed)
	return dropped
}

// State returns the page's current pipeline state.
func (p *Pipeline) State(pageID string) State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.states[pageID]; ok {
		return s
	}
	return StateUnprocessed
}

// OnStateChange registers an observer for page state transitions.
func (p *Pipeline) OnStateChange(fn func(pageID string, state State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// CacheStats exposes cache counters for metrics and health output.
func (p *Pipeline) CacheStats() cache.Stats { return p.results.Stats() }

// Close drains the worker pools.
func (p *Pipeline) Close() error {
	p.sched.Close()
	return nil
}

func (p *Pipeline) setState(pageID string, state State) {
	p.mu.Lock()
	p.states[pageID] = state
	observers := p.observers
	p.mu.Unlock()

	for _, fn := range observers {
		fn(pageID, state)
	}
}

func isTranslationFailure(err error) bool {
	return errors.Is(err, translator.ErrTranslationFailed) && !errors.Is(err, scheduler.ErrOverloaded)
}

func anyFailed(units []translator.Unit) bool {
	for _, u := range units {
		if u.Failed {
			return true
		}
	}
	return false
}

func decodeSize(imageBytes []byte) (geometry.Size, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageBytes))
	if err != nil {
		return geometry.Size{}, err
	}
	return geometry.Size{Width: cfg.Width, Height: cfg.Height}, nil
}
