package withdraw

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chatline-platform/internal/ledger"
	"chatline-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("withdraw: not found")
	ErrInvalidArgument = errors.New("withdraw: invalid argument")
	ErrNotPending      = errors.New("withdraw: not in pending status")
	ErrNoFunds         = errors.New("withdraw: no available balance")
)

// Service provides the payout request lifecycle.
//
// Atomicity contract: the withdraw insert and the available -> pending
// reservation happen in one transaction, as do the resolution status flip
// and the pending -> withdrawn settlement.
type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

// Balance returns the chatter's current bucket snapshot (available,
// pending-withdraw, total-withdrawn).
func (s *Service) Balance(ctx context.Context, chatterID string) (ledger.Balance, error) {
	if chatterID == "" {
		return ledger.Balance{}, ErrInvalidArgument
	}
	return ledger.GetBalance(ctx, s.db, chatterID)
}

type RequestInput struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// Request creates a payout request for the chatter's entire available
// balance, reserving it under pending-withdraw. Rejected outright when the
// available balance is zero.
func (s *Service) Request(ctx context.Context, chatterID string, in RequestInput) (Withdraw, error) {
	if chatterID == "" {
		return Withdraw{}, ErrInvalidArgument
	}
	if in.BankName == "" || in.AccountName == "" || in.AccountNumber == "" {
		return Withdraw{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var out Withdraw

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		bal, err := ledger.LockBalanceTx(ctx, tx, chatterID)
		if err != nil {
			return err
		}
		if bal.Available <= 0 {
			return ErrNoFunds
		}

		w := Withdraw{
			ID:            uuid.NewString(),
			ChatterID:     chatterID,
			BankName:      in.BankName,
			AccountName:   in.AccountName,
			AccountNumber: in.AccountNumber,
			Amount:        bal.Available,
			Status:        StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := insertWithdrawTx(ctx, tx, w); err != nil {
			return err
		}
		if _, err := ledger.ReserveForWithdrawTx(ctx, tx, chatterID, w.Amount, now); err != nil {
			return err
		}

		out = w
		return nil
	})

	return out, err
}

type Decision string

const (
	DecisionCompleted Decision = "completed"
	DecisionRejected  Decision = "rejected"
)

// Complete resolves a pending withdraw. Completion settles the reserved
// amount into total-withdrawn.
//
// Rejection only flips the status: the reservation made at request time is
// NOT returned to the available bucket. This mirrors the production ledger
// behavior as shipped; see the rejection test before changing it.
func (s *Service) Complete(ctx context.Context, withdrawID string, decision Decision) (Withdraw, error) {
	if withdrawID == "" {
		return Withdraw{}, ErrInvalidArgument
	}
	if decision != DecisionCompleted && decision != DecisionRejected {
		return Withdraw{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var out Withdraw

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		w, err := lockWithdrawTx(ctx, tx, withdrawID)
		if err != nil {
			return err
		}
		if w.Status != StatusPending {
			return ErrNotPending
		}

		status := StatusRejected
		if decision == DecisionCompleted {
			status = StatusCompleted
		}
		if err := setStatusTx(ctx, tx, withdrawID, status, now); err != nil {
			return err
		}

		if decision == DecisionCompleted {
			if _, err := ledger.SettleWithdrawTx(ctx, tx, w.ChatterID, w.Amount, now); err != nil {
				return err
			}
		}

		w.Status = status
		w.UpdatedAt = now
		out = w
		return nil
	})

	return out, err
}

const defaultPageSize = 20

func pageWindow(page int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	return defaultPageSize, (page - 1) * defaultPageSize
}

// ListByChatter returns the chatter's payout history, newest first.
func (s *Service) ListByChatter(ctx context.Context, chatterID string, page int) ([]Withdraw, int, error) {
	if chatterID == "" {
		return nil, 0, ErrInvalidArgument
	}
	limit, offset := pageWindow(page)
	ws, err := listWithdraws(ctx, s.db, chatterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := countWithdraws(ctx, s.db, chatterID)
	if err != nil {
		return nil, 0, err
	}
	return ws, total, nil
}

// ListAll returns every payout request, newest first (admin queue).
func (s *Service) ListAll(ctx context.Context, page int) ([]Withdraw, int, error) {
	limit, offset := pageWindow(page)
	ws, err := listWithdraws(ctx, s.db, "", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := countWithdraws(ctx, s.db, "")
	if err != nil {
		return nil, 0, err
	}
	return ws, total, nil
}
