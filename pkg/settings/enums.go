package settings

import (
	"fmt"
	"strings"
)

// Mode selects how aggressively peeking is handled.
type Mode int

const (
	Commute Mode = iota
	Office
	Meeting
	Custom
)

var modeNames = []string{"commute", "office", "meeting", "custom"}

// Profile is the behavior attached to a Mode.
type Profile struct {
	Sensitivity      int  `json:"sensitivity"`
	SuppressesVisual bool `json:"suppresses_visual"`
}

var profiles = [...]Profile{
	Commute: {Sensitivity: 10},
	Office:  {Sensitivity: 6},
	Meeting: {Sensitivity: 4, SuppressesVisual: true},
	Custom:  {},
}

// Profile returns the fixed profile for m. Custom takes its sensitivity
// from Settings.CustomSensitivity; see Settings.Profile.
func (m Mode) Profile() Profile {
	if !m.valid() {
		return profiles[Office]
	}
	return profiles[m]
}

func (m Mode) valid() bool { return m >= Commute && m <= Custom }

func (m Mode) String() string { return enumString(modeNames, int(m)) }

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) { return marshalEnum(modeNames, int(m), "mode") }

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(b []byte) error {
	i, err := ParseEnum(modeNames, string(b), "mode")
	if err != nil {
		return err
	}
	*m = Mode(i)
	return nil
}

// Action is the protective response shown when peeking is confirmed.
type Action int

const (
	Blur Action = iota
	Cover
	Disguise
	VibrateOnly
)

var actionNames = []string{"blur", "cover", "disguise", "vibrate_only"}

func (a Action) valid() bool { return a >= Blur && a <= VibrateOnly }

func (a Action) String() string { return enumString(actionNames, int(a)) }

// MarshalText implements encoding.TextMarshaler
func (a Action) MarshalText() ([]byte, error) { return marshalEnum(actionNames, int(a), "action") }

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Action) UnmarshalText(b []byte) error {
	i, err := ParseEnum(actionNames, string(b), "action")
	if err != nil {
		return err
	}
	*a = Action(i)
	return nil
}

// DisguiseKind is the decoy screen used by the Disguise action.
type DisguiseKind int

const (
	News DisguiseKind = iota
	StockMarket
	EBook
	Calculator
	Calendar
)

var disguiseNames = []string{"news", "stock_market", "ebook", "calculator", "calendar"}

func (d DisguiseKind) valid() bool { return d >= News && d <= Calendar }

func (d DisguiseKind) String() string { return enumString(disguiseNames, int(d)) }

// MarshalText implements encoding.TextMarshaler
func (d DisguiseKind) MarshalText() ([]byte, error) {
	return marshalEnum(disguiseNames, int(d), "disguise")
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DisguiseKind) UnmarshalText(b []byte) error {
	i, err := ParseEnum(disguiseNames, string(b), "disguise")
	if err != nil {
		return err
	}
	*d = DisguiseKind(i)
	return nil
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	var m Mode
	err := m.UnmarshalText([]byte(s))
	return m, err
}

// ParseAction parses an action name, ignoring case.
func ParseAction(s string) (Action, error) {
	var a Action
	err := a.UnmarshalText([]byte(s))
	return a, err
}

// ParseDisguise parses a disguise name, ignoring case.
func ParseDisguise(s string) (DisguiseKind, error) {
	var d DisguiseKind
	err := d.UnmarshalText([]byte(s))
	return d, err
}

func enumString(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func marshalEnum(names []string, i int, kind string) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("%w: %s %d", ErrInvalid, kind, i)
	}
	return []byte(names[i]), nil
}

var separators = strings.NewReplacer("_", "", "-", "", " ", "")

// ParseEnum finds s in names, ignoring case and word separators.
func ParseEnum(names []string, s, kind string) (int, error) {
	key := separators.Replace(strings.ToLower(strings.TrimSpace(s)))
	for i, n := range names {
		if separators.Replace(n) == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q", ErrInvalid, kind, s)
}
