// Package notify fans out upload events to in-process subscribers such as websocket clients.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopapp/backend/internal/models"
)

// EventType identifies what happened to a stored file.
type EventType string

const (
	EventUploadStored  EventType = "upload:stored"
	EventUploadDeleted EventType = "upload:deleted"
)

// DefaultBuffer is the per-subscriber queue length used when NewHub gets a non-positive size.
const DefaultBuffer = 16

// Event is published after a file is stored or removed.
type Event struct {
	Type EventType         `json:"type"`
	File models.StoredFile `json:"file"`
	Time time.Time         `json:"time"`
}

// Hub is a non-blocking broadcaster. A subscriber whose queue is full misses events
// instead of slowing down publishers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	buffer  int
	dropped atomic.Int64
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters it and
// closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber with room in its queue and returns how many
// received it. A zero Time is set to now.
func (h *Hub) Publish(ev Event) int {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
