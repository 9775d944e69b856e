package pipeline

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/reconcile"
	"github.com/panelglot/panelglot/internal/translator"
)

// State is a page's current pipeline state.
type State string

const (
	StateUnprocessed State = "unprocessed"
	StateProcessing  State = "processing"
	StateReady       State = "ready"
	StateFailed      State = "failed"
)

// Status tags a pipeline outcome. The reader surface always has a valid
// degraded state; there is no unrecoverable error channel.
type Status string

const (
	// StatusReady: every bubble carries a qualifying translation.
	StatusReady Status = "ready"
	// StatusPartial: at least one bubble degraded to original text only.
	StatusPartial Status = "partial"
	// StatusFailed: detection failed; the page shows the raw image.
	StatusFailed Status = "failed"
)

// Settings are the translation settings a result was computed under.
type Settings struct {
	SourceLang string          `json:"source_lang"`
	TargetLang string          `json:"target_lang"`
	Tier       translator.Tier `json:"tier"`
}

// Validate checks the language pair and tier.
func (s Settings) Validate() error {
	if _, err := language.Parse(s.SourceLang); err != nil {
		return fmt.Errorf("invalid source language %q: %w", s.SourceLang, err)
	}
	if _, err := language.Parse(s.TargetLang); err != nil {
		return fmt.Errorf("invalid target language %q: %w", s.TargetLang, err)
	}
	if _, err := translator.ParseTier(string(s.Tier)); err != nil {
		return err
	}
	return nil
}

// Request asks for a page's overlay at a given viewport.
type Request struct {
	PageID   string
	Settings Settings
	Viewport geometry.Size
}

// Validate checks the request.
func (r Request) Validate() error {
	if r.PageID == "" {
		return fmt.Errorf("page id is required")
	}
	if err := r.Settings.Validate(); err != nil {
		return err
	}
	if r.Viewport.Width <= 0 || r.Viewport.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", r.Viewport.Width, r.Viewport.Height)
	}
	return nil
}

// Result is an immutable pipeline outcome. Bubbles are ordered by detection
// order; RenderBox coordinates are relative to the viewport the result was
// derived for.
type Result struct {
	Bubbles    []reconcile.Bubble `json:"bubbles"`
	Settings   Settings           `json:"settings"`
	Status     Status             `json:"status"`
	SourceSize geometry.Size      `json:"source_size"`
	Viewport   geometry.Size      `json:"viewport"`
	ComputedAt time.Time          `json:"computed_at"`
}

// ForViewport derives a copy of the result with render boxes scaled to the
// given viewport. The receiver is never mutated; cached results stay
// canonical (render space == source space).
func (r *Result) ForViewport(viewport geometry.Size) *Result {
	if viewport == r.Viewport {
		return r
	}
	sx := float64(viewport.Width) / float64(r.SourceSize.Width)
	sy := float64(viewport.Height) / float64(r.SourceSize.Height)

	bubbles := make([]reconcile.Bubble, len(r.Bubbles))
	for i, b := range r.Bubbles {
		b.RenderBox = b.Region.Box.Scale(sx, sy)
		bubbles[i] = b
	}
	derived := *r
	derived.Bubbles = bubbles
	derived.Viewport = viewport
	return &derived
}
