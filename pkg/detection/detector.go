// Package detection turns raw face-detector output into per-frame peeking judgments.
package detection

import (
	"context"
	"time"

	"github.com/teslashibe/go-peekguard/pkg/frame"
)

// RawOutput is what a detector backend returns for one frame.
// Boxes holds N rows of normalized (x1, y1, x2, y2); Scores holds N confidences.
type RawOutput struct {
	Boxes  []float32
	Scores []float32
}

// Len returns the number of complete detections (rows present in both arrays).
func (o RawOutput) Len() int {
	n := len(o.Boxes) / 4
	if len(o.Scores) < n {
		n = len(o.Scores)
	}
	return n
}

// At returns detection i in normalized coordinates.
func (o RawOutput) At(i int) RawDetection {
	b := o.Boxes[i*4 : i*4+4]
	return RawDetection{
		X1:         float64(b[0]),
		Y1:         float64(b[1]),
		X2:         float64(b[2]),
		Y2:         float64(b[3]),
		Confidence: float64(o.Scores[i]),
	}
}

// Detector is the interface for face detection backends.
type Detector interface {
	// Detect runs inference on a preprocessed tensor.
	Detect(ctx context.Context, t frame.Tensor) (RawOutput, error)

	// Close releases resources
	Close() error
}

// Config holds detector and post-processing configuration
type Config struct {
	ModelPath        string        // Path to ONNX model
	InputWidth       int           // Model input width
	InputHeight      int           // Model input height
	ConfidenceThresh float64       // Detections at or below this are dropped
	IOUThresh        float64       // NMS overlap threshold
	PeekingDistance  float64       // Normalized distance from center that counts as peeking
	Timeout          time.Duration // Upper bound for one Detect call
}

// DefaultConfig returns production defaults for the Ultra-Light RFB-320 model
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/version-RFB-320.onnx",
		InputWidth:       frame.DefaultWidth,
		InputHeight:      frame.DefaultHeight,
		ConfidenceThresh: 0.7,
		IOUThresh:        0.3,
		PeekingDistance:  0.3,
		Timeout:          2 * time.Second,
	}
}
