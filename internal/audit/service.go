package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records the admin decision trail: who approved or rejected which
// session or withdrawal, from where.
//
// Audit is internal-only. Callers should treat logging as best-effort and log
// failures rather than aborting the decision.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ActorUserID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogSessionDecision records an admin approving or rejecting a session.
func (s *Service) LogSessionDecision(ctx context.Context, actorUserID, actorRole, ip, sessionID, decision, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeSessionDecision,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		SessionID:   sessionID,
		Message:     "session " + decision,
		Metadata:    metadata,
	})
}

// LogWithdrawDecision records an admin resolving a withdrawal request.
func (s *Service) LogWithdrawDecision(ctx context.Context, actorUserID, actorRole, ip, withdrawID, decision, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeWithdrawDecision,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		WithdrawID:  withdrawID,
		Message:     "withdraw " + decision,
		Metadata:    metadata,
	})
}
