package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub owns the subscriber set. All membership changes go through Run.
type Hub struct {
	name   string
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	publish    chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	dropped atomic.Int64
}

// New creates a hub. Nothing is delivered until Run is started.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[*Client]struct{}),
		publish:    make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run delivers messages until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.remove(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber connected", "subscribers", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.remove(c)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber disconnected", "subscribers", n)

		case msg := <-h.publish:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.Wants(msg.Topic) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// A subscriber that can't keep up misses everything, not just this one
			h.remove(c)
			h.logger.Warn("disconnected slow subscriber", "topic", msg.Topic)
		}
	}
}

// remove requires h.mu held.
func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast queues msg without blocking. Messages are dropped when the
// queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.publish <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Warn("publish queue full, dropping message", "topic", msg.Topic)
	}
}

// Publish encodes v in an Envelope of type typ and broadcasts it.
func (h *Hub) Publish(typ string, v any) error {
	data, err := Encode(typ, v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Topic: typ, Data: data})
	return nil
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded on a full queue.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
