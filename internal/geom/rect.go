package geom

import (
	"image"
	"math"
)

// Rect describes a rectangular region in screen coordinates. Max is exclusive.
type Rect struct {
	Min Point
	Max Point
}

// FromImageRect converts an image.Rectangle into a Rect.
func FromImageRect(r image.Rectangle) Rect {
	return Rect{
		Min: Pt(float64(r.Min.X), float64(r.Min.Y)),
		Max: Pt(float64(r.Max.X), float64(r.Max.Y)),
	}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether the rectangle has non-positive dimensions.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether the point lies within the rectangle.
func (r Rect) Contains(p Point) bool {
	if r.Empty() {
		return false
	}
	return p.X >= r.Min.X && p.Y >= r.Min.Y && p.X < r.Max.X && p.Y < r.Max.Y
}

// Clamp returns the point inside r closest to p. The exclusive edge is pulled
// in by one unit so the result is addressable as a pixel.
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, r.Min.X), r.Max.X-1),
		Y: math.Min(math.Max(p.Y, r.Min.Y), r.Max.Y-1),
	}
}
