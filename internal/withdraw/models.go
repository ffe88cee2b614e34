package withdraw

import "time"

// Withdraw is a chatter-initiated payout request. The amount is never
// client-supplied: it is the chatter's full available balance at request
// time, moved into the pending-withdraw bucket until an admin resolves the
// request.
type Withdraw struct {
	ID        string `json:"id" db:"id"`
	ChatterID string `json:"chatter_id" db:"chatter_id"`

	BankName      string `json:"bank_name" db:"bank_name"`
	AccountName   string `json:"account_name" db:"account_name"`
	AccountNumber string `json:"account_number" db:"account_number"`

	Amount int64  `json:"amount" db:"amount"`
	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)
