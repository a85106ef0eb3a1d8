// Package geometry provides axis-aligned rectangle primitives and the
// pure spatial predicates the rest of Raido is built on.
package geometry

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a 2D extent. Width and Height are never negative.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// A zero-extent Rect (width == height == 0) is valid and behaves as a point.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect builds a Rect, clamping negative extents to zero.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: math.Max(width, 0), Height: math.Max(height, 0)}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Size returns the extent of the rectangle.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Position returns the top-left corner.
func (r Rect) Position() Point { return Point{X: r.X, Y: r.Y} }

// Area returns width * height.
func (r Rect) Area() float64 { return r.Width * r.Height }

// ContainsPoint reports whether p lies inside r, edges inclusive.
func (r Rect) ContainsPoint(p Point) bool {
	return r.Left() <= p.X && p.X <= r.Right() &&
		r.Top() <= p.Y && p.Y <= r.Bottom()
}

// Contains reports whether outer completely contains inner. Shared edges
// count as containment, so Contains(a, a) is always true.
func Contains(outer, inner Rect) bool {
	return outer.Left() <= inner.Left() &&
		outer.Right() >= inner.Right() &&
		outer.Top() <= inner.Top() &&
		outer.Bottom() >= inner.Bottom()
}

// Intersects reports whether a and b overlap with positive area on both
// axes. Rectangles that merely share an edge are adjacent, not
// intersecting.
func Intersects(a, b Rect) bool {
	return !(a.Right() <= b.Left() ||
		a.Left() >= b.Right() ||
		a.Bottom() <= b.Top() ||
		a.Top() >= b.Bottom())
}

// Touches reports whether a and b overlap or share an edge.
func Touches(a, b Rect) bool {
	return !(a.Right() < b.Left() ||
		a.Left() > b.Right() ||
		a.Bottom() < b.Top() ||
		a.Top() > b.Bottom())
}

// Union returns the smallest rectangle covering both a and b.
func Union(a, b Rect) Rect {
	left := math.Min(a.Left(), b.Left())
	top := math.Min(a.Top(), b.Top())
	right := math.Max(a.Right(), b.Right())
	bottom := math.Max(a.Bottom(), b.Bottom())
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Intersection returns the overlapping region of a and b, and false when
// the rectangles do not intersect.
func Intersection(a, b Rect) (Rect, bool) {
	if !Intersects(a, b) {
		return Rect{}, false
	}
	left := math.Max(a.Left(), b.Left())
	top := math.Max(a.Top(), b.Top())
	right := math.Min(a.Right(), b.Right())
	bottom := math.Min(a.Bottom(), b.Bottom())
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}

// Distance returns the minimum corner-to-corner distance between a and b,
// 0 when they overlap or touch.
func Distance(a, b Rect) float64 {
	dx := math.Max(0, math.Max(b.Left()-a.Right(), a.Left()-b.Right()))
	dy := math.Max(0, math.Max(b.Top()-a.Bottom(), a.Top()-b.Bottom()))
	return math.Hypot(dx, dy)
}
