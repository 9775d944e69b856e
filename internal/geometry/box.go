package geometry

import "fmt"

// Box is an axis-aligned bounding box in pixel coordinates.
// (X0,Y0) is the top-left corner, (X1,Y1) the bottom-right corner.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Size describes image or viewport dimensions in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y1 - b.Y0 }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.X1 <= b.X0 || b.Y1 <= b.Y0 }

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	if b.Empty() {
		return other
	}
	if other.Empty() {
		return b
	}
	return Box{
		X0: min(b.X0, other.X0),
		Y0: min(b.Y0, other.Y0),
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
	}
}

// Intersects reports whether b and other share any area.
func (b Box) Intersects(other Box) bool {
	return b.X0 < other.X1 && other.X0 < b.X1 && b.Y0 < other.Y1 && other.Y0 < b.Y1
}

// Expand grows the box by margin on every side.
func (b Box) Expand(margin float64) Box {
	return Box{X0: b.X0 - margin, Y0: b.Y0 - margin, X1: b.X1 + margin, Y1: b.Y1 + margin}
}

// Scale maps the box by independent per-axis factors.
func (b Box) Scale(sx, sy float64) Box {
	return Box{X0: b.X0 * sx, Y0: b.Y0 * sy, X1: b.X1 * sx, Y1: b.Y1 * sy}
}

// Clamp restricts the box to [0,size.Width]x[0,size.Height].
func (b Box) Clamp(size Size) Box {
	w, h := float64(size.Width), float64(size.Height)
	return Box{
		X0: min(max(b.X0, 0), w),
		Y0: min(max(b.Y0, 0), h),
		X1: min(max(b.X1, 0), w),
		Y1: min(max(b.Y1, 0), h),
	}
}

// Within reports whether the box lies entirely inside the given size.
func (b Box) Within(size Size) bool {
	return b.X0 >= 0 && b.Y0 >= 0 && b.X1 <= float64(size.Width) && b.Y1 <= float64(size.Height)
}

// Validate checks basic box sanity (ordered corners).
func (b Box) Validate() error {
	if b.X1 < b.X0 || b.Y1 < b.Y0 {
		return fmt.Errorf("invalid box: corners out of order (%v)", b)
	}
	return nil
}
