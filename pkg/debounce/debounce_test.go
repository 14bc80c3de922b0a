package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-peekguard/pkg/detection"
)

var (
	positive = detection.Result{FaceCount: 2, Faces: []detection.Face{{}, {}}, PeekingDetected: true}
	negative = detection.Empty()
)

func TestRequiredFrames(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		hz      int
		want    int
	}{
		{"default settings", 1.5, 3, 5},
		{"exact", 2, 3, 6},
		{"rounds down", 1.1, 3, 3},
		{"minimum threshold", 0.5, 1, 1},
		{"zero clamps to one", 0, 3, 1},
		{"max", 5, 30, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredFrames(tt.seconds, tt.hz))
		})
	}
}

func TestObserve_FiresAtThreshold(t *testing.T) {
	d := New()
	now := time.Now()
	required := RequiredFrames(1.5, 3)

	for i := 0; i < required-1; i++ {
		_, fired := d.Observe(positive, required, now)
		require.False(t, fired, "frame %d", i+1)
	}

	ev, fired := d.Observe(positive, required, now)
	require.True(t, fired)
	assert.Equal(t, 5, ev.Frames)
	assert.Equal(t, positive, ev.Result)
	assert.Equal(t, 0, d.Snapshot().ConsecutivePositive, "counter resets after firing")
}

func TestObserve_NegativeResets(t *testing.T) {
	d := New()
	now := time.Now()

	for i := 0; i < 4; i++ {
		_, fired := d.Observe(positive, 5, now)
		require.False(t, fired)
	}
	assert.Equal(t, 4, d.Snapshot().ConsecutivePositive)

	_, fired := d.Observe(negative, 5, now)
	assert.False(t, fired)
	assert.Equal(t, 0, d.Snapshot().ConsecutivePositive)
	assert.Equal(t, Idle, d.Snapshot().Phase)

	// A new run needs the full count again.
	for i := 0; i < 4; i++ {
		_, fired = d.Observe(positive, 5, now)
		require.False(t, fired)
	}
	_, fired = d.Observe(positive, 5, now)
	assert.True(t, fired)
}

func TestObserve_FiresOncePerRun(t *testing.T) {
	d := New()
	now := time.Now()

	fires := 0
	for i := 0; i < 12; i++ {
		if _, fired := d.Observe(positive, 5, now); fired {
			fires++
		}
	}
	assert.Equal(t, 2, fires, "12 positives at 5 frames fire on frames 5 and 10")
	assert.Equal(t, 2, d.Snapshot().ConsecutivePositive)
}

func TestObserve_RequiredFramesFloor(t *testing.T) {
	d := New()
	_, fired := d.Observe(positive, 0, time.Now())
	assert.True(t, fired)
}

func TestSnapshot(t *testing.T) {
	d := New()
	s := d.Snapshot()
	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.LastDetection)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.Observe(positive, 5, at)

	s = d.Snapshot()
	assert.Equal(t, Accumulating, s.Phase)
	assert.Equal(t, 1, s.ConsecutivePositive)
	require.NotNil(t, s.LastDetection)
	assert.True(t, at.Equal(*s.LastDetection))

	// Negative frames keep the last detection time.
	d.Observe(negative, 5, at.Add(time.Second))
	require.NotNil(t, d.Snapshot().LastDetection)
	assert.True(t, at.Equal(*d.Snapshot().LastDetection))
}

func TestReset(t *testing.T) {
	d := New()
	d.Observe(positive, 5, time.Now())
	d.Observe(positive, 5, time.Now())

	d.Reset()

	s := d.Snapshot()
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, 0, s.ConsecutivePositive)
	assert.Nil(t, s.LastDetection)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "accumulating", Accumulating.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
