// Package overlay renders pipeline results onto page images for debugging
// and previews. The reader surface draws its own bubbles; this renderer
// exists so a result can be inspected without a client.
package overlay

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/panelglot/panelglot/internal/pipeline"
)

// Colors distinguish fully translated bubbles from OCR-only fallbacks.
var (
	translatedColor = color.RGBA{R: 46, G: 160, B: 67, A: 255}
	ocrOnlyColor    = color.RGBA{R: 212, G: 160, B: 23, A: 255}
	bubbleFill      = color.RGBA{R: 255, G: 255, B: 255, A: 170}
)

// Render scales the page to the result's viewport and draws each bubble's
// render box: a translucent fill plus a border color-coded by translation
// state. Returns a new image; the input is never modified.
func Render(page image.Image, res *pipeline.Result) *image.NRGBA {
	if page == nil || res == nil {
		return nil
	}

	dst := imaging.Resize(page, res.Viewport.Width, res.Viewport.Height, imaging.Lanczos)

	for _, b := range res.Bubbles {
		fillRect(dst, b.RenderBox, bubbleFill)
		border := translatedColor
		if b.Translation == nil {
			border = ocrOnlyColor
		}
		drawRect(dst, b.RenderBox, border, 2)
	}
	return dst
}
