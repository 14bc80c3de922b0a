// Package hub fans pipeline events out to websocket subscribers.
package hub

import (
	"encoding/json"
	"time"
)

// Message is one encoded Envelope queued for delivery.
type Message struct {
	Topic string // Envelope type, used for subscription filtering
	Data  []byte
}

// Envelope is the JSON frame every message is wrapped in.
// Clients switch on Type to decode Data.
type Envelope struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Subscription is the only frame clients send. An empty Topics list
// subscribes to everything.
type Subscription struct {
	Topics []string `json:"subscribe"`
}

// Encode wraps v in an Envelope of the given type.
func Encode(typ string, v any) ([]byte, error) {
	env := Envelope{Type: typ, Time: time.Now().UTC()}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
