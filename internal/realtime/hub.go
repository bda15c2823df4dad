// Package realtime fans out sessions-table change events to subscribed
// clients. One publisher, many independent subscribers; a slow subscriber
// never blocks the publisher or its peers.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dudgeon/chat-frontier-family/internal/model"
)

// subscriberBuffer is the per-subscriber channel depth. When a subscriber
// falls this far behind, further events are dropped for it rather than
// stalling the publish path.
const subscriberBuffer = 16

// Hub is the broadcast primitive behind the realtime push channel.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan model.ChangeEvent]struct{}
	closed bool
}

// NewHub returns an empty hub ready for subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan model.ChangeEvent]struct{})}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// ctx is done or the hub shuts down. Events published while subscribed are
// delivered in publish order per subscriber.
func (h *Hub) Subscribe(ctx context.Context) <-chan model.ChangeEvent {
	ch := make(chan model.ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}()

	return ch
}

// Publish delivers an event to every current subscriber without blocking.
func (h *Hub) Publish(ev model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("Dropping realtime event for slow subscriber", "event_type", ev.EventType)
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
