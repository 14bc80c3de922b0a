package frame

import (
	"errors"
	"fmt"
)

// Sentinel errors for frames that cannot be turned into a tensor.
var (
	// ErrEmptyInput is returned for zero-length frame buffers.
	ErrEmptyInput = errors.New("frame: empty input")

	// ErrDecode matches any *DecodeError via errors.Is.
	ErrDecode = errors.New("frame: decode failed")
)

// DecodeError wraps the underlying image decoder failure.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("frame: decode failed: %v", e.Err)
}

// Unwrap returns the decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
