package sweeper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeSessions struct {
	ids []string
	err error
}

func (f *fakeSessions) ExpiredSessionIDs(ctx context.Context, now time.Time) ([]string, error) {
	return f.ids, f.err
}

type fakePurger struct {
	deleted map[string]int64
	failOn  map[string]error
	calls   []string
}

func (f *fakePurger) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	f.calls = append(f.calls, sessionID)
	if err, ok := f.failOn[sessionID]; ok {
		return 0, err
	}
	return f.deleted[sessionID], nil
}

type fakeRecorder struct {
	runs, failures int
	deleted        int64
}

func (f *fakeRecorder) RecordSweepRun()            { f.runs++ }
func (f *fakeRecorder) RecordSweepFailure()        { f.failures++ }
func (f *fakeRecorder) RecordSweepDeleted(n int64) { f.deleted += n }

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestRun_PurgesEveryExpiredSession(t *testing.T) {
	var buf bytes.Buffer
	purger := &fakePurger{deleted: map[string]int64{"s1": 4, "s2": 2}}
	rec := &fakeRecorder{}
	sw := New(&fakeSessions{ids: []string{"s1", "s2"}}, purger, testLogger(&buf), rec)

	if err := sw.Run(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(purger.calls) != 2 {
		t.Fatalf("expected 2 purges, got %v", purger.calls)
	}
	if rec.deleted != 6 {
		t.Fatalf("expected 6 deleted recorded, got %d", rec.deleted)
	}
	if rec.runs != 1 {
		t.Fatalf("expected 1 run recorded, got %d", rec.runs)
	}
}

func TestRun_PerSessionFailureIsIsolated(t *testing.T) {
	var buf bytes.Buffer
	purger := &fakePurger{
		deleted: map[string]int64{"s1": 1, "s3": 5},
		failOn:  map[string]error{"s2": errors.New("boom")},
	}
	rec := &fakeRecorder{}
	sw := New(&fakeSessions{ids: []string{"s1", "s2", "s3"}}, purger, testLogger(&buf), rec)

	if err := sw.Run(context.Background()); err != nil {
		t.Fatalf("per-session failure must not fail the sweep, got %v", err)
	}
	if len(purger.calls) != 3 {
		t.Fatalf("expected the sweep to continue past the failure, calls=%v", purger.calls)
	}
	if rec.failures != 1 {
		t.Fatalf("expected 1 failure recorded, got %d", rec.failures)
	}
	if !strings.Contains(buf.String(), "sweep purge failed") {
		t.Fatalf("expected failure logged, got: %s", buf.String())
	}
}

func TestRun_QueryFailureAbortsSweep(t *testing.T) {
	var buf bytes.Buffer
	sw := New(&fakeSessions{err: errors.New("db down")}, &fakePurger{}, testLogger(&buf), nil)

	if err := sw.Run(context.Background()); err == nil {
		t.Fatalf("expected error when the expired-session query fails")
	}
}

func TestRun_IdempotentOnCleanState(t *testing.T) {
	var buf bytes.Buffer
	purger := &fakePurger{deleted: map[string]int64{"s1": 3}}
	rec := &fakeRecorder{}
	sw := New(&fakeSessions{ids: []string{"s1"}}, purger, testLogger(&buf), rec)

	if err := sw.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run sees the same expired session with nothing left to delete;
	// it must succeed with zero rows, same end state as running once.
	purger.deleted = map[string]int64{}
	if err := sw.Run(context.Background()); err != nil {
		t.Fatalf("second run must be a no-op, got %v", err)
	}
	if rec.deleted != 3 {
		t.Fatalf("expected total 3 deletions across both runs, got %d", rec.deleted)
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	sw := New(&fakeSessions{}, &fakePurger{}, testLogger(&buf), nil)
	sw.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Start(ctx)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop on cancel")
	}
}
