package detector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panelglot/panelglot/internal/geometry"
)

// Config holds region detection settings.
type Config struct {
	// MinConfidence drops detections below this recognition confidence.
	// Filtering happens here so low-confidence noise never reaches translation.
	MinConfidence float64
	// MergeGapPx is the maximum pixel gap between detections that still get
	// merged into one paragraph-level region.
	MergeGapPx float64
}

// DefaultConfig returns detection defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.5,
		MergeGapPx:    12,
	}
}

// TextRegion is a paragraph-level detected region. Index is the region's
// stable position within the page's detection order after filtering.
type TextRegion struct {
	Box        geometry.Box `json:"box"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Index      int          `json:"index"`
}

// Detector turns raw image bytes into an ordered, confidence-filtered list
// of paragraph-level text regions. Deterministic for identical inputs.
type Detector struct {
	engine Engine
	cfg    Config
}

// New creates a Detector wrapping the given recognition engine.
func New(engine Engine, cfg Config) (*Detector, error) {
	if engine == nil {
		return nil, fmt.Errorf("detector: engine is required")
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("detector: min confidence %f out of [0,1]", cfg.MinConfidence)
	}
	return &Detector{engine: engine, cfg: cfg}, nil
}

// Detect runs recognition over the image and returns qualifying regions in
// detection order. An empty result is a valid success state.
func (d *Detector) Detect(ctx context.Context, imageBytes []byte, languageHint string, imageSize geometry.Size) ([]TextRegion, error) {
	raw, err := d.engine.DetectText(ctx, imageBytes, languageHint)
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", err)
	}

	merged := mergeDetections(raw, d.cfg.MergeGapPx)

	regions := make([]TextRegion, 0, len(merged))
	for _, m := range merged {
		if m.Confidence < d.cfg.MinConfidence {
			continue
		}
		regions = append(regions, TextRegion{
			Box:        m.Box.Clamp(imageSize),
			Text:       m.Text,
			Confidence: clamp01(m.Confidence),
			Index:      len(regions),
		})
	}

	slog.Debug("Region detection complete",
		"raw", len(raw), "merged", len(merged), "qualifying", len(regions))
	return regions, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
