package model

// ChatSession stores the metadata row for one conversation. Name, summary and
// last_updated are mutated only through the session reconciler, never written
// directly by callers.
type ChatSession struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	Name           *string `json:"name"`
	SessionSummary *string `json:"session_summary,omitempty"`
	LastUpdated    *int64  `json:"last_updated"` // epoch millis
	CreatedAt      int64   `json:"created_at"`   // epoch millis
}

// Message is a single chat turn. ID is empty until the row is persisted;
// callers use that to detect "not yet saved".
type Message struct {
	ID        string  `json:"id,omitempty"`
	Content   string  `json:"content"`
	IsUser    bool    `json:"is_user"`
	Timestamp int64   `json:"timestamp,omitempty"` // epoch millis
	ImageURL  *string `json:"image_url,omitempty"`
	// Truncated marks an assistant message whose stream errored mid-way.
	// The partial text is kept rather than dropped.
	Truncated bool `json:"truncated,omitempty"`
}

// FullSession bundles a session with its ordered messages.
type FullSession struct {
	ChatSession
	Messages []Message `json:"messages"`
}

// Profile is the per-user profile row.
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Change event types delivered over the realtime channel.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// ChangeEvent is one realtime push for the sessions table. UPDATE payloads
// carry the full new row and are what the reconciler consumes downstream.
type ChangeEvent struct {
	EventType string       `json:"eventType"`
	New       *ChatSession `json:"new,omitempty"`
	Old       *ChatSession `json:"old,omitempty"`
}
