package settings

import (
	"sync"
	"sync/atomic"
)

// Holder shares the current Settings between the worker and the UI.
// Readers always see a complete value; writers replace it whole.
type Holder struct {
	v  atomic.Pointer[Settings]
	mu sync.Mutex // serializes writers
}

// NewHolder returns a Holder seeded with s (normalized).
func NewHolder(s Settings) *Holder {
	h := &Holder{}
	h.Store(s)
	return h
}

// Load returns a copy of the current settings.
func (h *Holder) Load() Settings {
	if p := h.v.Load(); p != nil {
		return *p
	}
	return Defaults()
}

// Store normalizes s and makes it current.
func (h *Holder) Store(s Settings) Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.swap(s)
}

// Update applies fn to a copy of the current settings and stores the result.
func (h *Holder) Update(fn func(*Settings)) Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.Load()
	fn(&s)
	return h.swap(s)
}

func (h *Holder) swap(s Settings) Settings {
	n := s.Normalize()
	h.v.Store(&n)
	return n
}
