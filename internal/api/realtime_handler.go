package api

import (
	"net/http"

	"github.com/dudgeon/chat-frontier-family/internal/realtime"
)

// RealtimeHandler streams sessions-table change events to clients over SSE.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Subscribe holds the connection open and forwards every change event as a
// data frame. The subscription ends when the client disconnects or the hub
// shuts down.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	events := h.hub.Subscribe(r.Context())
	for ev := range events {
		if err := writeStreamEvent(w, ev); err != nil {
			// Client went away; the context cancellation will clean up
			// the subscription.
			return
		}
	}
}
