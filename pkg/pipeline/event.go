package pipeline

import (
	"time"

	"github.com/teslashibe/go-peekguard/pkg/detection"
	"github.com/teslashibe/go-peekguard/pkg/history"
	"github.com/teslashibe/go-peekguard/pkg/protection"
)

// EventType identifies what an Event carries.
type EventType string

const (
	// ResultEvent carries per-frame detection output for overlays
	ResultEvent EventType = "result"
	// ProtectionEvent carries an activation or deactivation
	ProtectionEvent EventType = "protection"
	// PeekingEvent carries a confirmed peeking record
	PeekingEvent EventType = "peeking"
)

// Event is a single pipeline output. Exactly one payload is set, matching Type.
type Event struct {
	Type       EventType                `json:"type"`
	SessionID  string                   `json:"session_id,omitempty"`
	At         time.Time                `json:"at"`
	Result     *detection.Result        `json:"result,omitempty"`
	Protection *protection.Notification `json:"protection,omitempty"`
	Peeking    *history.Event           `json:"peeking,omitempty"`
}

// Stats are cumulative counters across sessions.
type Stats struct {
	FramesProcessed  int64      `json:"frames_processed"`
	FrameErrors      int64      `json:"frame_errors"`
	FramesDropped    int64      `json:"frames_dropped"`
	PeekingConfirmed int64      `json:"peeking_confirmed"`
	EventsDropped    int64      `json:"events_dropped"`
	LastPeeking      *time.Time `json:"last_peeking,omitempty"`
}
