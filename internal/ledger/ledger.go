// Package ledger owns the three-bucket balance accounting kept on chatter
// accounts: available, pending-withdraw, and total-withdrawn.
//
// Money invariants:
//   - available increases only when a session completes
//   - available decreases only when a withdrawal reserves it
//   - pending moves to withdrawn only when a withdrawal settles
//   - reserve and settle transfer value between buckets; the sum of the three
//     buckets never decreases
//
// All mutating entry points are transaction-scoped (…Tx) and must be called
// inside the caller's transaction so a balance change and its triggering
// state transition commit or roll back together.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("ledger: account not found")
	ErrInvalidArgument   = errors.New("ledger: invalid argument")
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)

// Balance is a snapshot of one account's buckets.
type Balance struct {
	AccountID       string    `json:"account_id"`
	Available       int64     `json:"available_balance"`
	PendingWithdraw int64     `json:"pending_withdraw"`
	TotalWithdrawn  int64     `json:"total_withdrawn"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Total is the conserved sum across the three buckets.
func (b Balance) Total() int64 {
	return b.Available + b.PendingWithdraw + b.TotalWithdrawn
}

const balanceCols = `id, available_balance, pending_withdraw, total_withdrawn, updated_at`

func scanBalance(row *sql.Row) (Balance, error) {
	var b Balance
	if err := row.Scan(&b.AccountID, &b.Available, &b.PendingWithdraw, &b.TotalWithdrawn, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Balance{}, ErrNotFound
		}
		return Balance{}, err
	}
	return b, nil
}

// GetBalance reads an account's balance outside any transaction.
func GetBalance(ctx context.Context, db *sql.DB, accountID string) (Balance, error) {
	if accountID == "" {
		return Balance{}, ErrInvalidArgument
	}
	const q = `SELECT ` + balanceCols + ` FROM accounts WHERE id = $1`
	return scanBalance(db.QueryRowContext(ctx, q, accountID))
}

// LockBalanceTx locks the account row to serialize concurrent money
// operations for that account within the caller's transaction.
func LockBalanceTx(ctx context.Context, tx *sql.Tx, accountID string) (Balance, error) {
	if accountID == "" {
		return Balance{}, ErrInvalidArgument
	}
	const q = `SELECT ` + balanceCols + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanBalance(tx.QueryRowContext(ctx, q, accountID))
}

// CreditAvailableTx adds amount to the available bucket. Used by the session
// approval workflow when a session flips to completed.
func CreditAvailableTx(ctx context.Context, tx *sql.Tx, accountID string, amount int64, now time.Time) (Balance, error) {
	if accountID == "" || amount <= 0 {
		return Balance{}, ErrInvalidArgument
	}
	const q = `
UPDATE accounts
SET available_balance = available_balance + $2, updated_at = $3
WHERE id = $1
RETURNING ` + balanceCols
	return scanBalance(tx.QueryRowContext(ctx, q, accountID, amount, now))
}

// ReserveForWithdrawTx moves amount from available into pending-withdraw.
// The caller must hold the row lock (LockBalanceTx) before calling; the
// balance check here is the authoritative one.
func ReserveForWithdrawTx(ctx context.Context, tx *sql.Tx, accountID string, amount int64, now time.Time) (Balance, error) {
	if accountID == "" || amount <= 0 {
		return Balance{}, ErrInvalidArgument
	}
	const q = `
UPDATE accounts
SET available_balance = available_balance - $2,
    pending_withdraw  = pending_withdraw + $2,
    updated_at        = $3
WHERE id = $1 AND available_balance >= $2
RETURNING ` + balanceCols
	b, err := scanBalance(tx.QueryRowContext(ctx, q, accountID, amount, now))
	if errors.Is(err, ErrNotFound) {
		// Row exists but the guard failed, or the account is unknown.
		// Distinguish by re-reading under the lock the caller holds.
		if _, lookupErr := LockBalanceTx(ctx, tx, accountID); lookupErr == nil {
			return Balance{}, ErrInsufficientFunds
		}
		return Balance{}, ErrNotFound
	}
	return b, err
}

// SettleWithdrawTx moves amount from pending-withdraw into total-withdrawn.
// Used when an admin marks a withdrawal completed.
func SettleWithdrawTx(ctx context.Context, tx *sql.Tx, accountID string, amount int64, now time.Time) (Balance, error) {
	if accountID == "" || amount <= 0 {
		return Balance{}, ErrInvalidArgument
	}
	const q = `
UPDATE accounts
SET pending_withdraw = pending_withdraw - $2,
    total_withdrawn  = total_withdrawn + $2,
    updated_at       = $3
WHERE id = $1 AND pending_withdraw >= $2
RETURNING ` + balanceCols
	b, err := scanBalance(tx.QueryRowContext(ctx, q, accountID, amount, now))
	if errors.Is(err, ErrNotFound) {
		if _, lookupErr := LockBalanceTx(ctx, tx, accountID); lookupErr == nil {
			return Balance{}, ErrInsufficientFunds
		}
		return Balance{}, ErrNotFound
	}
	return b, err
}
