package audit

import "time"

// Event is an immutable, append-only record of an admin decision.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; never block the decision flow on an
//   audit failure.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated admin causing the event.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	SessionID  string `json:"session_id,omitempty" db:"session_id"`
	WithdrawID string `json:"withdraw_id,omitempty" db:"withdraw_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeSessionDecision  EventType = "session_decision"
	EventTypeWithdrawDecision EventType = "withdraw_decision"
)
