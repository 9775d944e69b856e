package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/panelglot/panelglot/internal/geometry"
)

// drawRect strokes an axis-aligned rectangle with the given line thickness.
func drawRect(dst draw.Image, box geometry.Box, c color.Color, thickness int) {
	r := image.Rect(int(box.X0+0.5), int(box.Y0+0.5), int(box.X1+0.5), int(box.Y1+0.5))
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for t := range thickness {
		top := r.Min.Y + t
		bottom := r.Max.Y - 1 - t
		for x := r.Min.X; x < r.Max.X; x++ {
			if top <= bottom {
				dst.Set(x, top, c)
				dst.Set(x, bottom, c)
			}
		}
		left := r.Min.X + t
		right := r.Max.X - 1 - t
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if left <= right {
				dst.Set(left, y, c)
				dst.Set(right, y, c)
			}
		}
	}
}

// fillRect fills a translucent rectangle by alpha-blending c over dst.
func fillRect(dst draw.Image, box geometry.Box, c color.RGBA) {
	r := image.Rect(int(box.X0+0.5), int(box.Y0+0.5), int(box.X1+0.5), int(box.Y1+0.5))
	r = r.Intersect(dst.Bounds())
	src := image.NewUniform(c)
	draw.DrawMask(dst, r, src, image.Point{}, image.NewUniform(color.Alpha{A: c.A}), image.Point{}, draw.Over)
}
