package domain

import "encoding/json"

// ChangeEventType mirrors the row-level operations delivered by the
// change feed.
type ChangeEventType string

const (
	ChangeInsert ChangeEventType = "INSERT"
	ChangeUpdate ChangeEventType = "UPDATE"
	ChangeDelete ChangeEventType = "DELETE"
)

// ChangeEvent is one row-change notification from the remote change
// feed. New and Old carry the raw row images; OriginSession identifies
// the session whose write produced the event, letting a subscriber tell
// its own echoes apart from changes made on other devices.
type ChangeEvent struct {
	Table         string          `json:"table"`
	Type          ChangeEventType `json:"eventType"`
	New           json.RawMessage `json:"new,omitempty"`
	Old           json.RawMessage `json:"old,omitempty"`
	OriginSession string          `json:"origin_session,omitempty"`
}
