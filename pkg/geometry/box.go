// Package geometry provides axis-aligned box math shared by the detection pipeline.
package geometry

import "math"

// Box is an axis-aligned rectangle anchored at its top-left corner.
// Units are whatever the caller uses (pixels or normalized 0-1).
type Box struct {
	X, Y          float64
	Width, Height float64
}

// FromCorners builds a Box from its top-left and bottom-right corners.
func FromCorners(x1, y1, x2, y2 float64) Box {
	return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 {
	return b.Y + b.Height
}

// Center returns the center point of the box.
func (b Box) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns the area of the box. Degenerate boxes have zero area.
func (b Box) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Scale multiplies the box coordinates by sx horizontally and sy vertically.
// Used to move between normalized and pixel space.
func (b Box) Scale(sx, sy float64) Box {
	return Box{
		X:      b.X * sx,
		Y:      b.Y * sy,
		Width:  b.Width * sx,
		Height: b.Height * sy,
	}
}

// Intersection returns the overlapping area of two boxes (0 if disjoint).
func Intersection(a, b Box) float64 {
	x1 := math.Max(a.X, b.X)
	y1 := math.Max(a.Y, b.Y)
	x2 := math.Min(a.Right(), b.Right())
	y2 := math.Min(a.Bottom(), b.Bottom())

	return math.Max(0, x2-x1) * math.Max(0, y2-y1)
}

// IOU returns intersection over union of two boxes, in [0, 1].
// It is 0 when the union area is 0.
func IOU(a, b Box) float64 {
	inter := Intersection(a, b)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// AngleDegrees returns atan2(dy, dx) in degrees, in (-180, 180].
func AngleDegrees(dx, dy float64) float64 {
	return math.Atan2(dy, dx) * 180 / math.Pi
}
