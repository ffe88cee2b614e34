package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const accountCols = `id, username, email, password_hash, role, status,
	phone_number, age, gender, plans, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		a     Account
		plans []byte
	)
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &a.Status,
		&a.PhoneNumber, &a.Age, &a.Gender, &plans, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return Account{}, err
	}
	if len(plans) > 0 {
		if err := json.Unmarshal(plans, &a.Plans); err != nil {
			return Account{}, fmt.Errorf("account: decode plans for %s: %w", a.ID, err)
		}
	}
	return a, nil
}

func insertAccount(ctx context.Context, db *sql.DB, a Account) error {
	plans, err := json.Marshal(a.Plans)
	if err != nil {
		return fmt.Errorf("account: encode plans: %w", err)
	}
	const q = `
		INSERT INTO accounts
			(id, username, email, password_hash, role, status,
			 phone_number, age, gender, plans, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err = db.ExecContext(ctx, q,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.Status,
		a.PhoneNumber, a.Age, a.Gender, plans, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("account: insert %s: %w", a.ID, err)
	}
	return nil
}

// getByLogin resolves a username-or-email identifier to an account.
func getByLogin(ctx context.Context, db *sql.DB, login string) (Account, error) {
	q := fmt.Sprintf(`SELECT %s FROM accounts WHERE username = $1 OR email = $1`, accountCols)
	a, err := scanAccount(db.QueryRowContext(ctx, q, login))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("account: get by login: %w", err)
	}
	return a, nil
}

func getByID(ctx context.Context, db *sql.DB, id string) (Account, error) {
	q := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountCols)
	a, err := scanAccount(db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("account: get %s: %w", id, err)
	}
	return a, nil
}

func loginTaken(ctx context.Context, db *sql.DB, username, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 OR email = $2)`
	var taken bool
	if err := db.QueryRowContext(ctx, q, username, email).Scan(&taken); err != nil {
		return false, fmt.Errorf("account: check login taken: %w", err)
	}
	return taken, nil
}
