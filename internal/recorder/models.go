package recorder

import "time"

// SessionID identifies one continuous recording session. The value is
// assigned by the recorder tool and opaque to this service.
type SessionID string

// SessionState tracks where a session is in its lifecycle. There is no
// stored "closed" state: a session that finishes is removed.
type SessionState string

const (
	StateOpening SessionState = "opening"
	StateOpen    SessionState = "open"
	StateClosing SessionState = "closing"
)

// SessionRecord maps one recording session to the catalog clip created
// for it. Records are owned by the Store; callers get copies.
type SessionRecord struct {
	SessionID      SessionID    `json:"sessionId"`
	ClipID         int64        `json:"clipId"`
	AuthorID       int64        `json:"authorId"`
	State          SessionState `json:"state"`
	CreatedAt      time.Time    `json:"createdAt"`
	LastActivityAt time.Time    `json:"lastActivityAt"`
}

// Event kinds emitted by the recorder's webhook. Anything else is
// received but not processed.
const (
	EventFileOpening = "FileOpening"
	EventFileClosed  = "FileClosed"
)

// Envelope matches the recorder's webhook body.
type Envelope struct {
	EventType string    `json:"EventType"`
	EventData EventData `json:"EventData"`
}

// EventData carries the per-event payload. RoomID, RelativePath and
// FileOpenTime are only populated on FileOpening events.
type EventData struct {
	SessionID    string `json:"SessionId"`
	RoomID       int64  `json:"RoomId,omitempty"`
	RelativePath string `json:"RelativePath,omitempty"`
	FileOpenTime string `json:"FileOpenTime,omitempty"`
}
