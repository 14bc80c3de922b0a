package detection

import (
	"context"
	"sync/atomic"

	"github.com/teslashibe/go-peekguard/pkg/frame"
)

// Mock is a configurable Detector for tests and simulated sessions.
type Mock struct {
	DetectFunc func(ctx context.Context, t frame.Tensor) (RawOutput, error)
	CloseFunc  func() error

	calls atomic.Int64
}

// NewMock returns a mock that always reports no faces.
func NewMock() *Mock {
	return &Mock{}
}

// Fixed returns a mock that answers every call with out.
func Fixed(out RawOutput) *Mock {
	return &Mock{
		DetectFunc: func(context.Context, frame.Tensor) (RawOutput, error) {
			return out, nil
		},
	}
}

// Detect implements Detector
func (m *Mock) Detect(ctx context.Context, t frame.Tensor) (RawOutput, error) {
	m.calls.Add(1)
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, t)
	}
	return RawOutput{}, nil
}

// Close implements Detector
func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns how many times Detect has been invoked.
func (m *Mock) Calls() int {
	return int(m.calls.Load())
}
