// Package sweeper purges chat messages belonging to expired sessions. A
// session expires by time comparison only (status completed, end_time in the
// past); the session row itself is never mutated here, so the sweep is
// idempotent and safe to rerun.
package sweeper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionSource lists sessions whose access window has elapsed.
type ExpiredSessionSource interface {
	ExpiredSessionIDs(ctx context.Context, now time.Time) ([]string, error)
}

// MessagePurger deletes a session's messages and reports the row count.
type MessagePurger interface {
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

// Recorder is the metrics surface the sweeper reports to.
type Recorder interface {
	RecordSweepRun()
	RecordSweepFailure()
	RecordSweepDeleted(n int64)
}

// Sweeper is the periodic expiry job. One run finds every completed session
// whose window has elapsed and purges its messages; per-session failures are
// logged and skipped so one bad row cannot starve the rest of the batch.
type Sweeper struct {
	sessions ExpiredSessionSource
	messages MessagePurger
	logger   *slog.Logger
	metrics  Recorder

	Interval time.Duration
	clock    func() time.Time
}

func New(sessions ExpiredSessionSource, messages MessagePurger, logger *slog.Logger, metrics Recorder) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		messages: messages,
		logger:   logger,
		metrics:  metrics,
		Interval: time.Hour,
		clock:    time.Now,
	}
}

// Run executes a single sweep. It returns an error only when the expired-
// session query itself fails; purge failures are isolated per session.
func (s *Sweeper) Run(ctx context.Context) error {
	start := s.clock()
	now := start.UTC()
	if s.metrics != nil {
		s.metrics.RecordSweepRun()
	}

	ids, err := s.sessions.ExpiredSessionIDs(ctx, now)
	if err != nil {
		s.logger.Error("sweep query failed", "err", err)
		return fmt.Errorf("sweep: list expired sessions: %w", err)
	}

	var deleted int64
	var failures int
	for _, id := range ids {
		n, err := s.messages.DeleteBySession(ctx, id)
		if err != nil {
			failures++
			if s.metrics != nil {
				s.metrics.RecordSweepFailure()
			}
			s.logger.Error("sweep purge failed", "session_id", id, "err", err)
			continue
		}
		deleted += n
	}

	if s.metrics != nil {
		s.metrics.RecordSweepDeleted(deleted)
	}
	s.logger.Info("sweep completed",
		"expired_sessions", len(ids),
		"deleted_messages", deleted,
		"failures", failures,
		"duration_ms", float64(time.Since(start).Milliseconds()),
	)
	return nil
}

// Start blocks, sweeping on a fixed interval until ctx is canceled. One
// sweep runs immediately on startup to reclaim space after downtime.
func (s *Sweeper) Start(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial sweep failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", "err", err)
			}
		}
	}
}

// SessionStore is the Postgres-backed ExpiredSessionSource.
type SessionStore struct {
	DB *sql.DB
}

func (s SessionStore) ExpiredSessionIDs(ctx context.Context, now time.Time) ([]string, error) {
	const q = `SELECT id FROM sessions WHERE status = 'completed' AND end_time < $1`

	rows, err := s.DB.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
