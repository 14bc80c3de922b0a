// Package settings holds user-facing detection and protection preferences.
package settings

import (
	"errors"
	"math"
)

var (
	// ErrNotFound is returned by a Store that has no saved settings yet.
	ErrNotFound = errors.New("settings: not found")

	// ErrInvalid is returned for unknown enum names.
	ErrInvalid = errors.New("settings: invalid value")
)

// Bounds for user-adjustable values.
const (
	MinThresholdSeconds = 0.5
	MaxThresholdSeconds = 5.0
	MinFrequencyHz      = 1
	MaxFrequencyHz      = 30
	MinSensitivity      = 1
	MaxSensitivity      = 10
)

// Protection configures what happens once peeking is confirmed.
type Protection struct {
	Action           Action       `json:"action"`
	Disguise         DisguiseKind `json:"disguise"`
	ThresholdSeconds float64      `json:"threshold_seconds"`
	FrequencyHz      int          `json:"frequency_hz"` // Whole frames per second
	Vibrate          bool         `json:"vibrate"`
	Sound            bool         `json:"sound"`
	CapturePhoto     bool         `json:"capture_photo"`
}

// Settings is the complete preference set. Values are copied, never shared.
type Settings struct {
	Mode              Mode       `json:"mode"`
	CustomSensitivity int        `json:"custom_sensitivity"`
	Protection        Protection `json:"protection"`
}

// Defaults returns first-run settings.
func Defaults() Settings {
	return Settings{
		Mode:              Office,
		CustomSensitivity: 5,
		Protection: Protection{
			Action:           Blur,
			Disguise:         News,
			ThresholdSeconds: 1.5,
			FrequencyHz:      3,
			Vibrate:          true,
			Sound:            false,
			CapturePhoto:     false,
		},
	}
}

// Profile returns the mode profile, resolving Custom's sensitivity.
func (s Settings) Profile() Profile {
	p := s.Mode.Profile()
	if s.Mode == Custom {
		p.Sensitivity = s.CustomSensitivity
	}
	return p
}

// Normalize clamps numeric fields into range and resets unknown enums to defaults.
func (s Settings) Normalize() Settings {
	d := Defaults()

	if !s.Mode.valid() {
		s.Mode = d.Mode
	}
	if !s.Protection.Action.valid() {
		s.Protection.Action = d.Protection.Action
	}
	if !s.Protection.Disguise.valid() {
		s.Protection.Disguise = d.Protection.Disguise
	}

	s.CustomSensitivity = clampInt(s.CustomSensitivity, MinSensitivity, MaxSensitivity)
	s.Protection.ThresholdSeconds = clamp(s.Protection.ThresholdSeconds, MinThresholdSeconds, MaxThresholdSeconds)
	s.Protection.FrequencyHz = clampInt(s.Protection.FrequencyHz, MinFrequencyHz, MaxFrequencyHz)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
