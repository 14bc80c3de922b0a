package detection

import "github.com/teslashibe/go-peekguard/pkg/geometry"

// RawDetection is a single detector box with its score.
type RawDetection struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
}

// Box returns the detection as a geometry.Box.
func (d RawDetection) Box() geometry.Box {
	return geometry.FromCorners(d.X1, d.Y1, d.X2, d.Y2)
}

// FaceBox is a candidate face in pixel space.
type FaceBox struct {
	geometry.Box
	Confidence float64
}

// Face describes one detected face, normalized to the frame size (0-1).
type Face struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	AngleFromCenter float64 `json:"angle_from_center"` // Degrees, atan2 of offset from frame center
	IsOwner         bool    `json:"is_owner"`
}

// Center returns the normalized center point of the face
func (f Face) Center() (x, y float64) {
	return f.X + f.Width/2, f.Y + f.Height/2
}

// Result is the outcome of processing one frame.
type Result struct {
	FaceCount       int    `json:"face_count"`
	Faces           []Face `json:"faces"`
	PeekingDetected bool   `json:"peeking_detected"`
}

// Empty is the result for a frame with no faces (or a frame that failed).
func Empty() Result {
	return Result{Faces: []Face{}}
}
