package session

import "sync"

// metadataEvery is the assistant-turn cadence for regenerating session
// metadata: turn counts 3, 6, 9, and so on.
const metadataEvery = 3

// MetadataTrigger decides when to fire a metadata-generation round trip for
// the active session. It fires at most once per qualifying turn count,
// tracked by an explicit last-fired counter that resets when the active
// session changes. It never fires while an assistant response is in flight.
// Safe for concurrent use.
type MetadataTrigger struct {
	mu        sync.Mutex
	sessionID string
	lastFired int
}

// ShouldFire reports whether metadata generation should run now for the
// given session at the given assistant turn count, and records the firing
// when it returns true.
func (t *MetadataTrigger) ShouldFire(sessionID string, assistantTurns int, inFlight bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sessionID != t.sessionID {
		t.sessionID = sessionID
		t.lastFired = 0
	}
	if inFlight {
		return false
	}
	if assistantTurns <= 0 || assistantTurns%metadataEvery != 0 {
		return false
	}
	if assistantTurns == t.lastFired {
		return false
	}
	t.lastFired = assistantTurns
	return true
}
