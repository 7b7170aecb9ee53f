// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Rect is an axis-aligned rectangle in page coordinates: X0,Y0 is the
// top-left corner and X1,Y1 the bottom-right (X0 <= X1, Y0 <= Y1).
type Rect struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the rectangle's area. Degenerate rectangles have area 0.
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IntersectionArea returns the area of the overlap between r and other,
// or 0 when they do not overlap.
func (r Rect) IntersectionArea(other Rect) float64 {
	w := min(r.X1, other.X1) - max(r.X0, other.X0)
	if w <= 0 {
		return 0
	}
	h := min(r.Y1, other.Y1) - max(r.Y0, other.Y0)
	if h <= 0 {
		return 0
	}
	return w * h
}

// OverlapRatio returns the fraction of r covered by other: the
// intersection area divided by r's own area. A zero-area r yields 0.
func (r Rect) OverlapRatio(other Rect) float64 {
	area := r.Area()
	if area == 0 {
		return 0
	}
	return r.IntersectionArea(other) / area
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		X0: min(r.X0, other.X0),
		Y0: min(r.Y0, other.Y0),
		X1: max(r.X1, other.X1),
		Y1: max(r.Y1, other.Y1),
	}
}
