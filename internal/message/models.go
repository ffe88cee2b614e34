package message

import "time"

// Message is one chat message scoped to a session. Exactly one of Body and
// VoiceURL is populated, according to Type. Messages are purged in bulk by
// the expiry sweeper once the owning session's window has elapsed.
type Message struct {
	ID string `json:"id" db:"id"`

	// Seq is the database-assigned insert ordinal. History reads order by
	// it, so two messages stored within the same timestamp tick still come
	// back in persistence order.
	Seq int64 `json:"seq" db:"seq"`

	SessionID  string `json:"session_id" db:"session_id"`
	SenderID   string `json:"sender_id" db:"sender_id"`
	ReceiverID string `json:"receiver_id" db:"receiver_id"`

	Body     string `json:"message,omitempty" db:"body"`
	VoiceURL string `json:"voice_url,omitempty" db:"voice_url"`

	Type Type `json:"type" db:"type"`

	// DurationSeconds is set for voice messages only.
	DurationSeconds int  `json:"duration,omitempty" db:"duration_seconds"`
	Read            bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Type string

const (
	TypeText  Type = "text"
	TypeVoice Type = "voice"
)
