// Package geometry holds the pure rectangle math used while drawing,
// dragging and resizing annotation boxes. All functions are total: bad
// input is clamped, never rejected.
package geometry

// Rect is an axis-aligned rectangle in the pixel space of the rendered
// surface, anchored at its top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Bounds is the size of the rendered surface a rectangle must stay inside.
type Bounds struct {
	Width, Height float64
}

// FromCorners builds a normalized rectangle from two opposite corners, so a
// box dragged out in any direction has non-negative width and height.
func FromCorners(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Clamp confines r to [0, b.Width] x [0, b.Height], shrinking the box where
// it cannot fit. The result is idempotent: clamping twice changes nothing.
func Clamp(r Rect, b Bounds) Rect {
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if r.Width > b.Width {
		r.Width = b.Width
	}
	if r.Height > b.Height {
		r.Height = b.Height
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.X+r.Width > b.Width {
		r.X = b.Width - r.Width
	}
	if r.Y+r.Height > b.Height {
		r.Y = b.Height - r.Height
	}
	return r
}

// Translate moves r by (dx, dy) without resizing, clamped to b.
func Translate(r Rect, dx, dy float64, b Bounds) Rect {
	r.X += dx
	r.Y += dy
	return Clamp(r, b)
}

// Resize grows or shrinks r from its bottom-right corner by (dw, dh). Each
// edge never drops below minSize and the box never extends past b.
func Resize(r Rect, dw, dh float64, b Bounds, minSize float64) Rect {
	r.Width += dw
	r.Height += dh
	if r.Width < minSize {
		r.Width = minSize
	}
	if r.Height < minSize {
		r.Height = minSize
	}
	if r.X+r.Width > b.Width {
		r.Width = b.Width - r.X
	}
	if r.Y+r.Height > b.Height {
		r.Height = b.Height - r.Y
	}
	return Clamp(r, b)
}

// Contains reports whether the point (x, y) falls inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}
