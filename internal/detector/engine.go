package detector

import (
	"context"
	"errors"

	"github.com/panelglot/panelglot/internal/geometry"
)

// Engine failure classes. The pipeline maps both to a failed page state;
// they are separate so logs can distinguish "down" from "too slow".
var (
	ErrUnavailable = errors.New("recognition engine unavailable")
	ErrTimeout     = errors.New("recognition engine timeout")
)

// RawDetection is a single detection as returned by the recognition engine,
// before any merging or filtering.
type RawDetection struct {
	Text       string         `json:"text"`
	Confidence float64        `json:"confidence"`
	Box        geometry.Box   `json:"box"`
	WordBoxes  []geometry.Box `json:"word_boxes,omitempty"`
}

// Engine locates and transcribes embedded text in an image. Implementations
// wrap an external recognition service; the model itself is opaque.
type Engine interface {
	DetectText(ctx context.Context, imageBytes []byte, languageHint string) ([]RawDetection, error)
}
