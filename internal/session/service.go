package session

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
	ErrNotFound        = errors.New("session: not found")
	ErrInvalidArgument = errors.New("session: invalid argument")
	ErrNotPending      = errors.New("session: not in pending status")
	ErrPendingExists   = errors.New("session: a pending session already exists for this pair")
)

// Service provides the session lifecycle operations.
//
// Atomicity contract: the approval status flip and the chatter's balance
// credit happen inside one transaction. A reader must never observe one
// without the other.
type Service struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

type Decision string

const (
	DecisionCompleted Decision = "completed"
	DecisionRejected  Decision = "rejected"
)

type ApproveRequest struct {
	Decision Decision `json:"status"`

	// Supplied by the admin UI alongside the decision; expected to match the
	// session's plan but taken as authoritative, matching the approval
	// endpoint's historical contract.
	DurationMinutes int    `json:"duration"`
	Price           int64  `json:"price"`
	ChatterID       string `json:"chatter_id"`
}

// Approve resolves a pending session. Rejection only flips the status.
// Completion stamps the access window (start = now, end = now + duration)
// and credits the chatter's available balance with the supplied price, all
// or nothing.
func (s *Service) Approve(ctx context.Context, sessionID string, req ApproveRequest) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrInvalidArgument
	}
	switch req.Decision {
	case DecisionRejected:
	case DecisionCompleted:
		if req.DurationMinutes <= 0 || req.Price <= 0 {
			return Session{}, ErrInvalidArgument
		}
	default:
		return Session{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var out Session

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sess, err := lockSessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != StatusPending {
			return ErrNotPending
		}

		if req.Decision == DecisionRejected {
			if err := markRejectedTx(ctx, tx, sessionID, now); err != nil {
				return err
			}
			sess.Status = StatusRejected
			sess.UpdatedAt = now
			out = sess
			return nil
		}

		start := now
		end := now.Add(time.Duration(req.DurationMinutes) * time.Minute)
		if err := markCompletedTx(ctx, tx, sessionID, start, end); err != nil {
			return err
		}

		chatterID := req.ChatterID
		if chatterID == "" {
			chatterID = sess.ChatterID
		}
		if _, err := ledger.CreditAvailableTx(ctx, tx, chatterID, req.Price, now); err != nil {
			return err
		}

		sess.Status = StatusCompleted
		sess.StartTime = &start
		sess.EndTime = &end
		sess.UpdatedAt = now
		out = sess
		return nil
	})

	return out, err
}

type CreateRequest struct {
	UserID    string
	ChatterID string
	Plan      Plan

	TransactionID   string
	TransactionSS   string
	BankName        string
	PayerName       string
	PayerAccountNum string
	AmountPaid      int64
}

func validateCreate(req CreateRequest) error {
	if req.UserID == "" || req.ChatterID == "" {
		return ErrInvalidArgument
	}
	if req.TransactionID == "" || req.BankName == "" || req.PayerName == "" || req.PayerAccountNum == "" {
		return ErrInvalidArgument
	}
	if req.Plan.Price <= 0 || req.Plan.DurationMinutes <= 0 {
		return ErrInvalidArgument
	}
	return nil
}

// ValidatePurchase runs every purchase check that does not need the uploaded
// screenshot: field validation and the one-pending-per-pair guard. The HTTP
// layer calls it before writing the screenshot to object storage, so a
// request that would be rejected leaves nothing behind in the bucket.
func (s *Service) ValidatePurchase(ctx context.Context, req CreateRequest) error {
	if err := validateCreate(req); err != nil {
		return err
	}
	exists, err := pendingExists(ctx, s.db, req.UserID, req.ChatterID)
	if err != nil {
		return err
	}
	if exists {
		return ErrPendingExists
	}
	return nil
}

// CreatePending records a purchase awaiting admin review. At most one
// pending session may exist per (user, chatter) pair; the duplicate guard is
// a read-then-insert, which is acceptable for a manually reviewed flow.
func (s *Service) CreatePending(ctx context.Context, req CreateRequest) (Session, error) {
	if err := validateCreate(req); err != nil {
		return Session{}, err
	}
	if req.TransactionSS == "" {
		return Session{}, ErrInvalidArgument
	}

	exists, err := pendingExists(ctx, s.db, req.UserID, req.ChatterID)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrPendingExists
	}

	now := s.clock().UTC()
	sess := Session{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		ChatterID:       req.ChatterID,
		Plan:            req.Plan,
		TransactionID:   req.TransactionID,
		TransactionSS:   req.TransactionSS,
		BankName:        req.BankName,
		PayerName:       req.PayerName,
		PayerAccountNum: req.PayerAccountNum,
		AmountPaid:      req.AmountPaid,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := insertSession(ctx, s.db, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// CheckBusy inspects the chatter's most recently created session, not any
// session currently in its window. An older still-active session behind a
// newer one is therefore not seen; this matches the historical gating
// behavior and is deliberately preserved.
func (s *Service) CheckBusy(ctx context.Context, chatterID string) (BusyStatus, error) {
	if chatterID == "" {
		return BusyStatus{}, ErrInvalidArgument
	}

	sess, err := latestByChatter(ctx, s.db, chatterID)
	if errors.Is(err, ErrNotFound) {
		return BusyStatus{}, nil
	}
	if err != nil {
		return BusyStatus{}, err
	}

	now := s.clock().UTC()
	if !sess.ActiveAt(now) {
		return BusyStatus{}, nil
	}
	return BusyStatus{
		IsBusy:           true,
		RemainingMinutes: sess.RemainingMinutes(now),
		EndTime:          sess.EndTime,
	}, nil
}

// CheckSession returns the most recent session between the pair, or
// StatusNoSession with a nil session when none exists. The chat UI uses this
// to pick the locked/pending/active/expired view.
func (s *Service) CheckSession(ctx context.Context, userID, chatterID string) (string, *Session, error) {
	if userID == "" || chatterID == "" {
		return "", nil, ErrInvalidArgument
	}

	sess, err := latestByPair(ctx, s.db, userID, chatterID)
	if errors.Is(err, ErrNotFound) {
		return StatusNoSession, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return string(sess.Status), &sess, nil
}

// Get fetches a single session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrInvalidArgument
	}
	return getSession(ctx, s.db, id)
}

// IsParticipant reports whether accountID is either side of the session.
// The realtime gateway requires this before granting a room subscription.
func (s *Service) IsParticipant(ctx context.Context, sessionID, accountID string) (bool, error) {
	if sessionID == "" || accountID == "" {
		return false, ErrInvalidArgument
	}
	return isParticipant(ctx, s.db, sessionID, accountID)
}

const defaultPageSize = 20

// Page clamps paging inputs to the fixed admin page size.
func pageWindow(page int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	return defaultPageSize, (page - 1) * defaultPageSize
}

// ListAll returns sessions newest first for the admin review queue.
func (s *Service) ListAll(ctx context.Context, page int) ([]Session, int, error) {
	limit, offset := pageWindow(page)
	sessions, err := listSessions(ctx, s.db, "", nil, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := countSessions(ctx, s.db, "", nil)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListByUser returns the user's purchase history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, page int) ([]Session, int, error) {
	if userID == "" {
		return nil, 0, ErrInvalidArgument
	}
	limit, offset := pageWindow(page)
	where := `WHERE user_id = $1`
	args := []any{userID}
	sessions, err := listSessions(ctx, s.db, where, args, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := countSessions(ctx, s.db, where, args)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListByChatter returns sessions sold by the chatter, newest first.
func (s *Service) ListByChatter(ctx context.Context, chatterID string, page int) ([]Session, int, error) {
	if chatterID == "" {
		return nil, 0, ErrInvalidArgument
	}
	limit, offset := pageWindow(page)
	where := `WHERE chatter_id = $1`
	args := []any{chatterID}
	sessions, err := listSessions(ctx, s.db, where, args, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := countSessions(ctx, s.db, where, args)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Delete removes a session outright (admin tooling).
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return deleteSession(ctx, s.db, id)
}
