package account

import "time"

type Status string

const (
	// StatusPending marks a chatter application awaiting admin review.
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusBanned   Status = "banned"
)

// Plan is one entry in a chatter's price list. Purchases snapshot the chosen
// plan onto the session, so editing a plan never rewrites history.
type Plan struct {
	Title           string `json:"title"`
	Price           int64  `json:"price"`
	DurationMinutes int    `json:"duration"`
	Description     string `json:"description"`
}

// DefaultChatterPlans seeds a freshly approved chatter's price list.
var DefaultChatterPlans = []Plan{
	{Title: "Basic", DurationMinutes: 30, Price: 500, Description: "30 minutes chat"},
	{Title: "Standard", DurationMinutes: 60, Price: 900, Description: "1 hour chat"},
	{Title: "Gold", DurationMinutes: 90, Price: 1200, Description: "1 hour 30 minutes chat"},
}

type Account struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`

	// PasswordHash is a bcrypt digest. Never serialized.
	PasswordHash string `json:"-" db:"password_hash"`

	Role   string `json:"role" db:"role"`
	Status Status `json:"status" db:"status"`

	PhoneNumber string `json:"phone_number,omitempty" db:"phone_number"`
	Age         int    `json:"age,omitempty" db:"age"`
	Gender      string `json:"gender,omitempty" db:"gender"`

	// Plans is populated for chatters only.
	Plans []Plan `json:"plans,omitempty" db:"plans"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
