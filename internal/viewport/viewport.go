// Package viewport maps between screen space and image space under a
// uniform zoom scale and a pixel offset.
package viewport

import "math"

// Scale guards. Zoom requests that would leave the scale outside this range
// are rejected.
const (
	MinScale = 1e-4
	MaxScale = 1e4
)

// Point is a position in either screen or image space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Viewport holds the presentational transform. The zero value is not usable;
// call New.
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// New returns an identity viewport.
func New() Viewport {
	return Viewport{Scale: 1}
}

// ToImage converts a screen point into image space.
func (v Viewport) ToImage(p Point) Point {
	return Point{
		X: (p.X - v.OffsetX) / v.Scale,
		Y: (p.Y - v.OffsetY) / v.Scale,
	}
}

// ToScreen converts an image point into screen space.
func (v Viewport) ToScreen(p Point) Point {
	return Point{
		X: p.X*v.Scale + v.OffsetX,
		Y: p.Y*v.Scale + v.OffsetY,
	}
}

// Offset returns the current pan offset as a point.
func (v Viewport) Offset() Point {
	return Point{v.OffsetX, v.OffsetY}
}

// Zoom multiplies the scale by factor. The offset is left untouched so the
// zoom is anchored at the offset rather than the cursor. It reports false and
// leaves the viewport unchanged when the result would be non-finite or out of
// range.
func (v *Viewport) Zoom(factor float64) bool {
	next := v.Scale * factor
	if math.IsNaN(next) || math.IsInf(next, 0) || next < MinScale || next > MaxScale {
		return false
	}
	v.Scale = next
	return true
}

// Pan shifts the offset by the given screen delta.
func (v *Viewport) Pan(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	v.OffsetX += dx
	v.OffsetY += dy
}

// Reset restores the scale to 1. The offset is not changed.
func (v *Viewport) Reset() {
	v.Scale = 1
}

// ResetPan restores the offset to the origin. The scale is not changed.
func (v *Viewport) ResetPan() {
	v.OffsetX, v.OffsetY = 0, 0
}
