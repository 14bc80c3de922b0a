// Package protection turns a confirmed peeking event into a protective response.
package protection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-peekguard/pkg/settings"
)

// VibrationDuration is the haptic pulse length on activation.
const VibrationDuration = 200 * time.Millisecond

// ErrNoDevice is returned by feedback backends with nothing to drive.
var ErrNoDevice = errors.New("protection: no feedback device")

// Kind distinguishes notifications.
type Kind int

const (
	Activated Kind = iota
	Deactivated
)

func (k Kind) String() string {
	if k == Activated {
		return "activated"
	}
	return "deactivated"
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "activated":
		*k = Activated
	case "deactivated":
		*k = Deactivated
	default:
		return fmt.Errorf("protection: unknown kind %q", text)
	}
	return nil
}

// Notification tells the UI what to show. Deactivated carries neutral defaults.
type Notification struct {
	Kind     Kind                  `json:"kind"`
	Action   settings.Action       `json:"action"`
	Disguise settings.DisguiseKind `json:"disguise"`
	At       time.Time             `json:"at"`
}

// State is the dispatcher's current protection.
type State struct {
	Active   bool                  `json:"active"`
	Action   settings.Action       `json:"action"`
	Disguise settings.DisguiseKind `json:"disguise"`
}

// Outcome reports everything one Activate call did.
type Outcome struct {
	// Notification is nil when the mode suppresses visual protection.
	Notification *Notification
	Vibrated     bool
	Sounded      bool
	Errors       []error
}

// Haptics produces a vibration.
type Haptics interface {
	Vibrate(ctx context.Context, d time.Duration) error
}

// Audio plays the alert sound.
type Audio interface {
	PlayAlert(ctx context.Context) error
}

// Notifier receives every notification the dispatcher emits.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Dispatcher applies the protection policy. Safe for concurrent use.
type Dispatcher struct {
	haptics  Haptics
	audio    Audio
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotifier sets the single notification sink.
func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates an inactive dispatcher. Nil haptics or audio disable that side effect.
func NewDispatcher(h Haptics, a Audio, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		haptics: h,
		audio:   a,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Activate runs side effects, then shows the configured protection unless
// the mode suppresses visuals. Side-effect failures never block activation.
func (d *Dispatcher) Activate(ctx context.Context, s settings.Settings) Outcome {
	var out Outcome
	p := s.Protection

	if p.Vibrate || p.Action == settings.VibrateOnly {
		if err := d.vibrate(ctx); err != nil {
			d.logger.Warn("vibration failed", "error", err)
			out.Errors = append(out.Errors, err)
		} else {
			out.Vibrated = true
		}
	}

	if p.Sound {
		if err := d.playAlert(ctx); err != nil {
			d.logger.Warn("alert sound failed", "error", err)
			out.Errors = append(out.Errors, err)
		} else {
			out.Sounded = true
		}
	}

	if s.Profile().SuppressesVisual {
		d.logger.Debug("visual protection suppressed", "mode", s.Mode)
		return out
	}

	d.mu.Lock()
	d.state = State{Active: true, Action: p.Action, Disguise: p.Disguise}
	n := Notification{Kind: Activated, Action: p.Action, Disguise: p.Disguise, At: d.now()}
	d.mu.Unlock()

	d.logger.Info("protection activated", "action", p.Action, "disguise", p.Disguise, "mode", s.Mode)
	d.emit(n)
	out.Notification = &n
	return out
}

// Deactivate clears any protection. Always allowed, even when inactive.
func (d *Dispatcher) Deactivate() Notification {
	d.mu.Lock()
	d.state = State{}
	n := Notification{Kind: Deactivated, At: d.now()}
	d.mu.Unlock()

	d.logger.Info("protection deactivated")
	d.emit(n)
	return n
}

// State returns the current protection state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) vibrate(ctx context.Context) error {
	if d.haptics == nil {
		return ErrNoDevice
	}
	return d.haptics.Vibrate(ctx, VibrationDuration)
}

func (d *Dispatcher) playAlert(ctx context.Context) error {
	if d.audio == nil {
		return ErrNoDevice
	}
	return d.audio.PlayAlert(ctx)
}

func (d *Dispatcher) emit(n Notification) {
	if d.notifier != nil {
		d.notifier.Notify(n)
	}
}
