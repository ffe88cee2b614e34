package withdraw

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const withdrawCols = `id, chatter_id, bank_name, account_name, account_number, amount, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWithdraw(row rowScanner) (Withdraw, error) {
	var w Withdraw
	err := row.Scan(
		&w.ID, &w.ChatterID, &w.BankName, &w.AccountName, &w.AccountNumber,
		&w.Amount, &w.Status, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Withdraw{}, ErrNotFound
		}
		return Withdraw{}, err
	}
	return w, nil
}

func insertWithdrawTx(ctx context.Context, tx *sql.Tx, w Withdraw) error {
	const q = `
INSERT INTO withdraws (
  id, chatter_id, bank_name, account_name, account_number, amount, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := tx.ExecContext(ctx, q,
		w.ID, w.ChatterID, w.BankName, w.AccountName, w.AccountNumber,
		w.Amount, w.Status, w.CreatedAt, w.UpdatedAt,
	)
	return err
}

// lockWithdrawTx locks the withdraw row so concurrent admin resolutions of
// the same request serialize.
func lockWithdrawTx(ctx context.Context, tx *sql.Tx, id string) (Withdraw, error) {
	const q = `SELECT ` + withdrawCols + ` FROM withdraws WHERE id = $1 FOR UPDATE`
	return scanWithdraw(tx.QueryRowContext(ctx, q, id))
}

func setStatusTx(ctx context.Context, tx *sql.Tx, id string, status Status, now time.Time) error {
	const q = `UPDATE withdraws SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, now)
	return err
}

func listWithdraws(ctx context.Context, db *sql.DB, chatterID string, limit, offset int) ([]Withdraw, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if chatterID == "" {
		const q = `SELECT ` + withdrawCols + ` FROM withdraws ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, q, limit, offset)
	} else {
		const q = `SELECT ` + withdrawCols + ` FROM withdraws WHERE chatter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, q, chatterID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Withdraw, 0)
	for rows.Next() {
		w, err := scanWithdraw(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func countWithdraws(ctx context.Context, db *sql.DB, chatterID string) (int, error) {
	var n int
	if chatterID == "" {
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM withdraws`).Scan(&n); err != nil {
			return 0, err
		}
		return n, nil
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM withdraws WHERE chatter_id = $1`, chatterID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
