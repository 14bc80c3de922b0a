package detection

import "errors"

// Sentinel errors for detector failures. Both are per-frame and non-fatal.
var (
	// ErrInference is returned when the detector is unavailable or not initialized.
	ErrInference = errors.New("detection: inference unavailable")

	// ErrDetectionTimeout is returned when a Detect call exceeds its time bound.
	ErrDetectionTimeout = errors.New("detection: timed out")
)
