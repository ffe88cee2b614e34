package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NOTE: This repository assumes the sessions table from the embedded
// migrations. Plan fields are denormalized columns (snapshot semantics);
// there is no plans table to reference.

const sessionCols = `
id, user_id, chatter_id,
plan_title, plan_price, plan_duration_minutes, plan_description,
transaction_id, transaction_ss_url, bank_name, account_name, account_number, amount_paid,
status, start_time, end_time, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var start, end sql.NullTime
	err := row.Scan(
		&s.ID, &s.UserID, &s.ChatterID,
		&s.Plan.Title, &s.Plan.Price, &s.Plan.DurationMinutes, &s.Plan.Description,
		&s.TransactionID, &s.TransactionSS, &s.BankName, &s.PayerName, &s.PayerAccountNum, &s.AmountPaid,
		&s.Status, &start, &end, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if start.Valid {
		t := start.Time
		s.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		s.EndTime = &t
	}
	return s, nil
}

func insertSession(ctx context.Context, db *sql.DB, s Session) error {
	const q = `
INSERT INTO sessions (
  id, user_id, chatter_id,
  plan_title, plan_price, plan_duration_minutes, plan_description,
  transaction_id, transaction_ss_url, bank_name, account_name, account_number, amount_paid,
  status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`
	_, err := db.ExecContext(ctx, q,
		s.ID, s.UserID, s.ChatterID,
		s.Plan.Title, s.Plan.Price, s.Plan.DurationMinutes, s.Plan.Description,
		s.TransactionID, s.TransactionSS, s.BankName, s.PayerName, s.PayerAccountNum, s.AmountPaid,
		s.Status, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// lockSessionTx locks the session row to serialize concurrent approval
// attempts for the same session.
func lockSessionTx(ctx context.Context, tx *sql.Tx, id string) (Session, error) {
	const q = `SELECT ` + sessionCols + ` FROM sessions WHERE id = $1 FOR UPDATE`
	return scanSession(tx.QueryRowContext(ctx, q, id))
}

func markRejectedTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	const q = `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, StatusRejected, now)
	return err
}

// markCompletedTx flips the session to completed and stamps its access
// window in one statement. Callers set end = start + duration.
func markCompletedTx(ctx context.Context, tx *sql.Tx, id string, start, end time.Time) error {
	const q = `
UPDATE sessions
SET status = $2, start_time = $3, end_time = $4, updated_at = $3
WHERE id = $1
`
	_, err := tx.ExecContext(ctx, q, id, StatusCompleted, start, end)
	return err
}

func getSession(ctx context.Context, db *sql.DB, id string) (Session, error) {
	const q = `SELECT ` + sessionCols + ` FROM sessions WHERE id = $1`
	return scanSession(db.QueryRowContext(ctx, q, id))
}

// latestByChatter returns the chatter's most recently created session
// regardless of status. The busy check depends on exactly this semantic.
func latestByChatter(ctx context.Context, db *sql.DB, chatterID string) (Session, error) {
	const q = `SELECT ` + sessionCols + ` FROM sessions WHERE chatter_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanSession(db.QueryRowContext(ctx, q, chatterID))
}

func latestByPair(ctx context.Context, db *sql.DB, userID, chatterID string) (Session, error) {
	const q = `SELECT ` + sessionCols + ` FROM sessions WHERE user_id = $1 AND chatter_id = $2 ORDER BY created_at DESC LIMIT 1`
	return scanSession(db.QueryRowContext(ctx, q, userID, chatterID))
}

func pendingExists(ctx context.Context, db *sql.DB, userID, chatterID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM sessions WHERE user_id = $1 AND chatter_id = $2 AND status = $3)`
	var exists bool
	if err := db.QueryRowContext(ctx, q, userID, chatterID, StatusPending).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// isParticipant reports whether the account is the user or chatter side of
// the session. The realtime gateway uses it as the room capability check.
func isParticipant(ctx context.Context, db *sql.DB, sessionID, accountID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND (user_id = $2 OR chatter_id = $2))`
	var ok bool
	if err := db.QueryRowContext(ctx, q, sessionID, accountID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func listSessions(ctx context.Context, db *sql.DB, where string, args []any, limit, offset int) ([]Session, error) {
	q := fmt.Sprintf(`SELECT %s FROM sessions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		sessionCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func countSessions(ctx context.Context, db *sql.DB, where string, args []any) (int, error) {
	q := `SELECT COUNT(*) FROM sessions ` + where
	var n int
	if err := db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func deleteSession(ctx context.Context, db *sql.DB, id string) error {
	const q = `DELETE FROM sessions WHERE id = $1`
	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
