package settings

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.Equal(t, Office, d.Mode)
	assert.Equal(t, Blur, d.Protection.Action)
	assert.Equal(t, News, d.Protection.Disguise)
	assert.Equal(t, 1.5, d.Protection.ThresholdSeconds)
	assert.Equal(t, 3, d.Protection.FrequencyHz)
	assert.True(t, d.Protection.Vibrate)
	assert.False(t, d.Protection.Sound)
	assert.False(t, d.Protection.CapturePhoto)
	assert.Equal(t, d, d.Normalize(), "defaults are already in range")
}

func TestMode_Profile(t *testing.T) {
	tests := []struct {
		mode        Mode
		sensitivity int
		suppresses  bool
	}{
		{Commute, 10, false},
		{Office, 6, false},
		{Meeting, 4, true},
		{Custom, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			p := tt.mode.Profile()
			assert.Equal(t, tt.sensitivity, p.Sensitivity)
			assert.Equal(t, tt.suppresses, p.SuppressesVisual)
		})
	}
}

func TestSettings_ProfileCustom(t *testing.T) {
	s := Defaults()
	s.Mode = Custom
	s.CustomSensitivity = 8

	assert.Equal(t, Profile{Sensitivity: 8}, s.Profile())

	s.Mode = Commute
	assert.Equal(t, 10, s.Profile().Sensitivity, "custom value ignored outside custom mode")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		check  func(*testing.T, Settings)
	}{
		{
			name:   "threshold low",
			mutate: func(s *Settings) { s.Protection.ThresholdSeconds = 0.1 },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 0.5, s.Protection.ThresholdSeconds) },
		},
		{
			name:   "threshold high",
			mutate: func(s *Settings) { s.Protection.ThresholdSeconds = 60 },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 5.0, s.Protection.ThresholdSeconds) },
		},
		{
			name:   "threshold NaN",
			mutate: func(s *Settings) { s.Protection.ThresholdSeconds = math.NaN() },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 0.5, s.Protection.ThresholdSeconds) },
		},
		{
			name:   "frequency zero",
			mutate: func(s *Settings) { s.Protection.FrequencyHz = 0 },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 1, s.Protection.FrequencyHz) },
		},
		{
			name:   "frequency negative",
			mutate: func(s *Settings) { s.Protection.FrequencyHz = -4 },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 1, s.Protection.FrequencyHz) },
		},
		{
			name:   "frequency high",
			mutate: func(s *Settings) { s.Protection.FrequencyHz = 120 },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 30, s.Protection.FrequencyHz) },
		},
		{
			name:   "sensitivity",
			mutate: func(s *Settings) { s.CustomSensitivity = 42 },
			check:  func(t *testing.T, s Settings) { assert.Equal(t, 10, s.CustomSensitivity) },
		},
		{
			name: "unknown enums",
			mutate: func(s *Settings) {
				s.Mode = Mode(17)
				s.Protection.Action = Action(-1)
				s.Protection.Disguise = DisguiseKind(99)
			},
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, Office, s.Mode)
				assert.Equal(t, Blur, s.Protection.Action)
				assert.Equal(t, News, s.Protection.Disguise)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)
			tt.check(t, s.Normalize())
		})
	}
}

func TestParseEnums(t *testing.T) {
	m, err := ParseMode("MEETING")
	require.NoError(t, err)
	assert.Equal(t, Meeting, m)

	a, err := ParseAction("vibrate-only")
	require.NoError(t, err)
	assert.Equal(t, VibrateOnly, a)

	d, err := ParseDisguise("StockMarket")
	require.NoError(t, err)
	assert.Equal(t, StockMarket, d)

	d, err = ParseDisguise("e-book")
	require.NoError(t, err)
	assert.Equal(t, EBook, d)

	_, err = ParseMode("library")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSettings_JSON(t *testing.T) {
	s := Defaults()
	s.Mode = Meeting
	s.Protection.Action = Disguise
	s.Protection.Disguise = Calculator

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"meeting"`)
	assert.Contains(t, string(data), `"action":"disguise"`)
	assert.Contains(t, string(data), `"disguise":"calculator"`)

	var back Settings
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)

	err = json.Unmarshal([]byte(`{"mode":"library"}`), &back)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = json.Marshal(Settings{Mode: Mode(9)})
	assert.Error(t, err)
}

func TestHolder(t *testing.T) {
	h := NewHolder(Defaults())
	assert.Equal(t, Defaults(), h.Load())

	got := h.Store(Settings{Mode: Meeting, Protection: Protection{FrequencyHz: 100}})
	assert.Equal(t, 30, got.Protection.FrequencyHz)
	assert.Equal(t, got, h.Load())

	got = h.Update(func(s *Settings) { s.Protection.Sound = true })
	assert.True(t, got.Protection.Sound)
	assert.Equal(t, Meeting, h.Load().Mode)

	var zero Holder
	assert.Equal(t, Defaults(), zero.Load())
}

func TestHolder_ConcurrentUpdate(t *testing.T) {
	h := NewHolder(Defaults())
	h.Update(func(s *Settings) { s.CustomSensitivity = 1 })

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Update(func(s *Settings) { s.CustomSensitivity++ })
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, h.Load().CustomSensitivity)
}

func TestSettings_FractionalFrequencyRejected(t *testing.T) {
	var s Settings
	err := json.Unmarshal([]byte(`{"protection":{"frequency_hz":2.5}}`), &s)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"protection":{"frequency_hz":5}}`), &s))
	assert.Equal(t, 5, s.Protection.FrequencyHz)
}
