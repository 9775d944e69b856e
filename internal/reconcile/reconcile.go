// Package reconcile combines detected text regions and batch translations
// into renderable overlay bubbles. Everything here is pure computation.
package reconcile

import (
	"fmt"

	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/translator"
)

// Thresholds are the independent confidence cutoffs for keeping a pairing.
type Thresholds struct {
	OCR         float64
	Translation float64
}

// DefaultThresholds returns the default 50%/50% cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{OCR: 0.5, Translation: 0.5}
}

// Bubble is the final renderable unit: one region with at most one
// translation. A nil Translation means the bubble shows the original text
// only. RenderBox is relative to the full, unzoomed rendered page; any live
// zoom/pan transform composes on top of it in the reader surface.
type Bubble struct {
	Region      detector.TextRegion `json:"region"`
	Translation *translator.Unit    `json:"translation,omitempty"`
	RenderBox   geometry.Box        `json:"render_box"`
}

// Reconcile pairs regions with translation units positionally and maps
// source boxes into render space by per-axis viewport scaling. Pairings
// below either threshold are dropped; output order matches region order.
// Precondition: len(regions) == len(units).
func Reconcile(regions []detector.TextRegion, units []translator.Unit, sourceSize, viewportSize geometry.Size, th Thresholds) ([]Bubble, error) {
	if len(regions) != len(units) {
		return nil, fmt.Errorf("reconcile: %d regions but %d translation units", len(regions), len(units))
	}
	if sourceSize.Width <= 0 || sourceSize.Height <= 0 {
		return nil, fmt.Errorf("reconcile: invalid source size %dx%d", sourceSize.Width, sourceSize.Height)
	}
	if viewportSize.Width <= 0 || viewportSize.Height <= 0 {
		return nil, fmt.Errorf("reconcile: invalid viewport size %dx%d", viewportSize.Width, viewportSize.Height)
	}

	sx := float64(viewportSize.Width) / float64(sourceSize.Width)
	sy := float64(viewportSize.Height) / float64(sourceSize.Height)

	bubbles := make([]Bubble, 0, len(regions))
	for i, region := range regions {
		if region.Confidence < th.OCR {
			continue
		}

		unit := units[i]
		var translation *translator.Unit
		if !unit.Failed {
			if unit.Confidence < th.Translation {
				continue
			}
			u := unit
			translation = &u
		}
		// A failed sentinel keeps the bubble with original text only.

		bubbles = append(bubbles, Bubble{
			Region:      region,
			Translation: translation,
			RenderBox:   region.Box.Scale(sx, sy),
		})
	}
	return bubbles, nil
}
