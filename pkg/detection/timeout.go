package detection

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-peekguard/pkg/frame"
)

type timeoutDetector struct {
	inner   Detector
	timeout time.Duration
}

// WithTimeout bounds every Detect call on det to d, even when det ignores
// its context. A non-positive d returns det unchanged.
func WithTimeout(det Detector, d time.Duration) Detector {
	if d <= 0 {
		return det
	}
	return &timeoutDetector{inner: det, timeout: d}
}

type detectReply struct {
	out RawOutput
	err error
}

func (t *timeoutDetector) Detect(ctx context.Context, in frame.Tensor) (RawOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	reply := make(chan detectReply, 1)
	go func() {
		out, err := t.inner.Detect(ctx, in)
		reply <- detectReply{out, err}
	}()

	select {
	case r := <-reply:
		if errors.Is(r.err, context.DeadlineExceeded) {
			return RawOutput{}, ErrDetectionTimeout
		}
		return r.out, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return RawOutput{}, ErrDetectionTimeout
		}
		return RawOutput{}, ctx.Err()
	}
}

func (t *timeoutDetector) Close() error {
	return t.inner.Close()
}
