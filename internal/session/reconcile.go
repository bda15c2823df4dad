// Package session holds the metadata reconciliation rules for chat sessions.
// Session name, summary and last_updated may change concurrently from
// realtime pushes and from slow metadata-generation round trips; every such
// patch funnels through Reconcile so that out-of-order delivery can never
// regress newer state.
package session

import (
	"encoding/json"
	"time"

	"github.com/dudgeon/chat-frontier-family/internal/model"
)

// Patch is one incoming metadata update. Absent fields leave the session's
// prior values untouched. Timestamp is epoch millis; zero means the patch
// carried no parseable timestamp and is compared as 0, never written back.
type Patch struct {
	Name      *string
	Summary   *string
	Timestamp int64
}

// ParsePatchTime converts the timestamp forms patches arrive with (ISO-8601
// strings, epoch-millis numbers, or JSON-decoded float64) to epoch millis.
// Unparseable input yields 0. Patch producers that take timestamps off the
// wire normalize them here before building a Patch; in-process writers
// already hold epoch millis and skip it.
func ParsePatchTime(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return n
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UnixMilli()
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMilli()
		}
		return 0
	default:
		return 0
	}
}

// FromChange builds a Patch from a realtime UPDATE payload row. Subscribers
// of the change feed fold pushed rows into their local copy through this and
// Reconcile, the same funnel the server's own metadata writers go through,
// so delivery order cannot matter on either side.
func FromChange(row *model.ChatSession) Patch {
	p := Patch{Name: row.Name, Summary: row.SessionSummary}
	if row.LastUpdated != nil {
		p.Timestamp = *row.LastUpdated
	}
	return p
}

// Reconcile decides whether to apply or discard a patch, last-writer-wins by
// timestamp. When the session's current last_updated is strictly greater than
// the patch's timestamp the whole patch is discarded and the same session
// pointer is returned; an older patch never partially wins. Equal timestamps
// apply. Applying the same patch twice is idempotent.
//
// Reconcile has no knowledge of why the patch arrived (realtime push vs. RPC
// response); both paths must call it so arrival order cannot matter.
func Reconcile(cur *model.ChatSession, p Patch) *model.ChatSession {
	if cur.LastUpdated != nil && *cur.LastUpdated > p.Timestamp {
		return cur
	}
	next := *cur
	if p.Name != nil {
		name := *p.Name
		next.Name = &name
	}
	if p.Summary != nil {
		summary := *p.Summary
		next.SessionSummary = &summary
	}
	if p.Timestamp > 0 {
		ts := p.Timestamp
		next.LastUpdated = &ts
	}
	return &next
}
