package protection

import (
	"context"
	"log/slog"
	"time"
)

// LogFeedback implements Haptics and Audio by logging. Used on hosts
// without a vibration motor or speaker.
type LogFeedback struct {
	Logger *slog.Logger
}

// Vibrate implements Haptics
func (f LogFeedback) Vibrate(_ context.Context, d time.Duration) error {
	f.logger().Info("vibrate", "duration", d)
	return nil
}

// PlayAlert implements Audio
func (f LogFeedback) PlayAlert(context.Context) error {
	f.logger().Info("alert sound")
	return nil
}

func (f LogFeedback) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// Publisher is the subset of hub.Hub that RemoteFeedback needs.
type Publisher interface {
	Publish(typ string, v any) error
	ClientCount() int
}

// Message types sent by RemoteFeedback.
const (
	VibrateMessage = "vibrate"
	AlertMessage   = "alert"
)

// VibrateCommand is the payload of a vibrate message.
type VibrateCommand struct {
	DurationMS int64 `json:"duration_ms"`
}

// RemoteFeedback forwards haptic and audio commands to connected UI
// clients, which own the actual device.
type RemoteFeedback struct {
	pub Publisher
}

// NewRemoteFeedback creates feedback that publishes through pub.
func NewRemoteFeedback(pub Publisher) *RemoteFeedback {
	return &RemoteFeedback{pub: pub}
}

// Vibrate implements Haptics
func (r *RemoteFeedback) Vibrate(_ context.Context, d time.Duration) error {
	if r.pub.ClientCount() == 0 {
		return ErrNoDevice
	}
	return r.pub.Publish(VibrateMessage, VibrateCommand{DurationMS: d.Milliseconds()})
}

// PlayAlert implements Audio
func (r *RemoteFeedback) PlayAlert(context.Context) error {
	if r.pub.ClientCount() == 0 {
		return ErrNoDevice
	}
	return r.pub.Publish(AlertMessage, nil)
}
