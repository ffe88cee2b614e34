package session

import "time"

// Session is a purchased, time-boxed chat entitlement between a user and a
// chatter, created pending and resolved by an admin decision.
//
// Invariants:
//   - Status only moves pending -> completed or pending -> rejected; terminal
//     states are never revisited.
//   - StartTime/EndTime are set exactly once, atomically with the completed
//     transition, and EndTime = StartTime + Plan.DurationMinutes.
//   - The chatter's available balance is credited in the same transaction
//     that marks the session completed.
type Session struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	ChatterID string `json:"chatter_id" db:"chatter_id"`

	// Plan is a snapshot copied at purchase time, not a live reference.
	Plan Plan `json:"plan"`

	// Manual bank-transfer payment proof.
	TransactionID   string `json:"transaction_id" db:"transaction_id"`
	TransactionSS   string `json:"transaction_ss_url" db:"transaction_ss_url"`
	BankName        string `json:"bank_name" db:"bank_name"`
	PayerName       string `json:"account_name" db:"account_name"`
	PayerAccountNum string `json:"account_number" db:"account_number"`
	AmountPaid      int64  `json:"amount_paid" db:"amount_paid"`

	Status Status `json:"status" db:"status"`

	// Null until the session is approved as completed.
	StartTime *time.Time `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time" db:"end_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Plan is the priced/duration-bound product snapshot attached to a session.
type Plan struct {
	Title           string `json:"title" db:"plan_title"`
	Price           int64  `json:"price" db:"plan_price"`
	DurationMinutes int    `json:"duration" db:"plan_duration_minutes"`
	Description     string `json:"description" db:"plan_description"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// StatusNoSession is the sentinel returned by the pair status check when no
// session exists between a user and a chatter.
const StatusNoSession = "no-session"

// ActiveAt reports whether the session grants chat access at the given time:
// approved as completed and still inside its window. A completed session with
// a past EndTime is treated as expired by comparison, never by mutation.
func (s Session) ActiveAt(now time.Time) bool {
	return s.Status == StatusCompleted && s.EndTime != nil && now.Before(*s.EndTime)
}

// RemainingMinutes is the time left in the window, rounded up to whole
// minutes. Zero when the session is not active at the given time.
func (s Session) RemainingMinutes(now time.Time) int {
	if !s.ActiveAt(now) {
		return 0
	}
	d := s.EndTime.Sub(now)
	return int((d + time.Minute - 1) / time.Minute)
}

// BusyStatus is the advisory answer to "is this chatter locked into an
// active session right now". It gates new purchases best-effort; it is not a
// lock (two purchases may pass the check concurrently).
type BusyStatus struct {
	IsBusy           bool       `json:"is_busy"`
	RemainingMinutes int        `json:"remaining_minutes,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
}
