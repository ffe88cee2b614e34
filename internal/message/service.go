package message

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrNotFound        = errors.New("message: not found")
	ErrInvalidArgument = errors.New("message: invalid argument")
)

// Service persists and queries chat messages. Text bodies pass through an
// HTML-stripping sanitizer before storage; clients render message bodies as
// they arrive.
type Service struct {
	db        *sql.DB
	sanitizer *bluemonday.Policy
	clock     func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		clock:     time.Now,
	}
}

type CreateTextRequest struct {
	SessionID  string `json:"session_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Body       string `json:"message"`
}

// CreateText persists a text message and returns the stored record,
// including its generated id and timestamp. The caller broadcasts the
// returned record; senders rely on the broadcast echo, not on a direct
// response.
func (s *Service) CreateText(ctx context.Context, req CreateTextRequest) (Message, error) {
	if req.SessionID == "" || req.SenderID == "" || req.ReceiverID == "" {
		return Message{}, ErrInvalidArgument
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(req.Body))
	if body == "" {
		return Message{}, ErrInvalidArgument
	}

	m := Message{
		ID:         uuid.NewString(),
		SessionID:  req.SessionID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Body:       body,
		Type:       TypeText,
		CreatedAt:  s.clock().UTC(),
	}
	if err := insertMessage(ctx, s.db, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

type CreateVoiceRequest struct {
	SessionID       string
	SenderID        string
	ReceiverID      string
	VoiceURL        string
	DurationSeconds int
}

// CreateVoice persists a voice message whose audio was already uploaded to
// object storage by the voice endpoint.
func (s *Service) CreateVoice(ctx context.Context, req CreateVoiceRequest) (Message, error) {
	if req.SessionID == "" || req.SenderID == "" || req.ReceiverID == "" {
		return Message{}, ErrInvalidArgument
	}
	if req.VoiceURL == "" {
		return Message{}, ErrInvalidArgument
	}
	if req.DurationSeconds < 0 {
		return Message{}, ErrInvalidArgument
	}

	m := Message{
		ID:              uuid.NewString(),
		SessionID:       req.SessionID,
		SenderID:        req.SenderID,
		ReceiverID:      req.ReceiverID,
		VoiceURL:        req.VoiceURL,
		Type:            TypeVoice,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       s.clock().UTC(),
	}
	if err := insertMessage(ctx, s.db, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ListBySession returns a session's messages in creation order. Unknown
// sessions yield an empty slice, not an error.
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]Message, error) {
	if sessionID == "" {
		return nil, ErrInvalidArgument
	}
	return listBySession(ctx, s.db, sessionID)
}

// DeleteBySession purges every message belonging to a session and reports
// how many rows were removed. Deleting an already-clean session is a no-op.
func (s *Service) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrInvalidArgument
	}
	return deleteBySession(ctx, s.db, sessionID)
}

// MarkRead flags everything addressed to readerID in the session as read.
func (s *Service) MarkRead(ctx context.Context, sessionID, readerID string) error {
	if sessionID == "" || readerID == "" {
		return ErrInvalidArgument
	}
	return markRead(ctx, s.db, sessionID, readerID)
}
