// Package pagestore reads page image bytes for the pipeline. The store owns
// the bytes; the pipeline only derives hashes and detections from them.
package pagestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned for unknown page identifiers.
var ErrNotFound = errors.New("page not found")

// Store provides page image bytes by page identifier and notifies
// subscribers when a page's image is replaced, so cached pipeline results
// can be invalidated.
type Store interface {
	// ImageBytes returns the raw encoded image for the page.
	ImageBytes(ctx context.Context, pageID string) ([]byte, error)

	// Subscribe registers a callback fired with the page ID whenever that
	// page's image bytes change.
	Subscribe(fn func(pageID string))
}
