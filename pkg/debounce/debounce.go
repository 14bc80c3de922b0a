// Package debounce confirms peeking only after a sustained run of positive frames.
package debounce

import (
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-peekguard/pkg/detection"
)

// Phase is the debouncer's coarse state.
type Phase int

const (
	Idle Phase = iota
	Accumulating
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is an immutable copy of the debouncer's counters.
type State struct {
	Phase               Phase      `json:"phase"`
	ConsecutivePositive int        `json:"consecutive_positive"`
	LastDetection       *time.Time `json:"last_detection,omitempty"`
}

// Event is emitted once when a run of positive frames reaches the threshold.
type Event struct {
	Result detection.Result // Result of the frame that confirmed peeking
	Frames int              // Positive frames in the confirming run
	At     time.Time
}

// Debouncer counts consecutive positive frames. Observe is meant to be
// called from a single worker; Snapshot is safe from any goroutine.
type Debouncer struct {
	mu            sync.Mutex
	consecutive   int
	lastDetection time.Time
}

// New returns an idle debouncer.
func New() *Debouncer {
	return &Debouncer{}
}

// Observe feeds one frame result. It returns an Event and true when the
// run reaches requiredFrames; the counter then restarts from zero.
func (d *Debouncer) Observe(res detection.Result, requiredFrames int, now time.Time) (Event, bool) {
	if requiredFrames < 1 {
		requiredFrames = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !res.PeekingDetected {
		d.consecutive = 0
		return Event{}, false
	}

	d.consecutive++
	d.lastDetection = now

	if d.consecutive < requiredFrames {
		return Event{}, false
	}

	ev := Event{Result: res, Frames: d.consecutive, At: now}
	d.consecutive = 0
	return ev, true
}

// Reset returns to Idle and forgets the last detection time.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	d.consecutive = 0
	d.lastDetection = time.Time{}
	d.mu.Unlock()
}

// Snapshot returns the current state.
func (d *Debouncer) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := State{Phase: Idle, ConsecutivePositive: d.consecutive}
	if d.consecutive > 0 {
		s.Phase = Accumulating
	}
	if !d.lastDetection.IsZero() {
		t := d.lastDetection
		s.LastDetection = &t
	}
	return s
}

// RequiredFrames converts a threshold duration into a frame count at the
// given sampling rate, rounding half away from zero. The result is at least 1.
func RequiredFrames(thresholdSeconds float64, frequencyHz int) int {
	n := int(math.Round(thresholdSeconds * float64(frequencyHz)))
	if n < 1 {
		return 1
	}
	return n
}
