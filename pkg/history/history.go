// Package history records confirmed peeking events.
package history

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/teslashibe/go-peekguard/pkg/settings"
)

// ErrNotFound is returned when an event ID does not exist.
var ErrNotFound = errors.New("history: event not found")

// Event is one confirmed peeking.
type Event struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	FaceCount       int             `json:"face_count"`
	AngleFromCenter float64         `json:"angle_from_center"` // Of the first face, degrees
	DurationSeconds float64         `json:"duration_seconds"`  // How long peeking lasted before confirmation
	Mode            settings.Mode   `json:"mode"`
	Action          settings.Action `json:"action"`
	PhotoPath       string          `json:"photo_path,omitempty"`
	Location        string          `json:"location"`
}

// Recorder stores events.
type Recorder interface {
	Record(ctx context.Context, e *Event) error
}

// Store is a queryable event log.
type Store interface {
	Recorder

	// Get returns a single event by ID
	Get(ctx context.Context, id string) (Event, error)

	// List returns up to limit events, newest first
	List(ctx context.Context, limit int) ([]Event, error)

	// Count returns the total number of events
	Count(ctx context.Context) (int, error)

	// Clear deletes every event
	Clear(ctx context.Context) error
}

// NewID returns a ULID for an event at t. IDs sort by time.
func NewID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// prepare fills ID, Timestamp and Location when unset.
func prepare(e *Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.ID == "" {
		id, err := NewID(e.Timestamp)
		if err != nil {
			return err
		}
		e.ID = id
	}
	if e.Location == "" {
		e.Location = "Unknown"
	}
	return nil
}
