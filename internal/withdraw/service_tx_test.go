package withdraw

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

// The payout paths promise that the withdraw row write and its ledger
// movement commit or roll back together. Driven here through a stub
// database/sql driver that serves canned rows and can refuse a chosen
// statement mid-transaction.

type stubConnector struct{ conn *stubConn }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open by dsn not supported")
}

type stubConn struct {
	withdrawRow []driver.Value
	balanceRow  []driver.Value

	failOn  string
	failErr error

	stmts      []string
	committed  bool
	rolledBack bool
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *stubConn) Close() error              { return nil }
func (c *stubConn) Begin() (driver.Tx, error) { return c, nil }

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return c, nil
}

func (c *stubConn) Commit() error   { c.committed = true; return nil }
func (c *stubConn) Rollback() error { c.rolledBack = true; return nil }

func (c *stubConn) saw(substr string) bool {
	for _, s := range c.stmts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.stmts = append(c.stmts, query)
	if c.failOn != "" && strings.Contains(query, c.failOn) {
		return nil, c.failErr
	}
	switch {
	case strings.Contains(query, "FROM withdraws"):
		return &stubRows{n: len(c.withdrawRow), row: c.withdrawRow}, nil
	case strings.Contains(query, "FROM accounts"), strings.Contains(query, "UPDATE accounts"):
		return &stubRows{n: len(c.balanceRow), row: c.balanceRow}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (c *stubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.stmts = append(c.stmts, query)
	if c.failOn != "" && strings.Contains(query, c.failOn) {
		return nil, c.failErr
	}
	return driver.RowsAffected(1), nil
}

type stubRows struct {
	n    int
	row  []driver.Value
	done bool
}

func (r *stubRows) Columns() []string { return make([]string, r.n) }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.done || r.row == nil {
		return io.EOF
	}
	copy(dest, r.row)
	r.done = true
	return nil
}

func pendingWithdrawRow(now time.Time) []driver.Value {
	return []driver.Value{"w1", "c1", "bank", "acct", "123", int64(500), "pending", now, now}
}

func balanceRow(available int64, now time.Time) []driver.Value {
	return []driver.Value{"c1", available, int64(0), int64(0), now}
}

func stubService(t *testing.T, conn *stubConn, now time.Time) *Service {
	t.Helper()
	db := sql.OpenDB(stubConnector{conn})
	t.Cleanup(func() { _ = db.Close() })
	svc := NewService(db)
	svc.clock = func() time.Time { return now }
	return svc
}

func TestRequest_ReserveFailureRollsBackInsert(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &stubConn{
		balanceRow: balanceRow(500, now),
		failOn:     "available_balance - $2",
		failErr:    errors.New("reserve refused"),
	}
	svc := stubService(t, conn, now)

	_, err := svc.Request(context.Background(), "c1", RequestInput{
		BankName: "bank", AccountName: "acct", AccountNumber: "123",
	})
	if err == nil || !strings.Contains(err.Error(), "reserve refused") {
		t.Fatalf("expected the reserve failure to surface, got %v", err)
	}
	if !conn.saw("INSERT INTO withdraws") {
		t.Fatal("withdraw insert was never attempted before the reserve failed")
	}
	if !conn.rolledBack {
		t.Fatal("expected rollback: the withdraw row must not survive a failed reservation")
	}
	if conn.committed {
		t.Fatal("transaction must not commit after a reserve failure")
	}
}

func TestComplete_SettleFailureRollsBackStatusFlip(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &stubConn{
		withdrawRow: pendingWithdrawRow(now),
		failOn:      "pending_withdraw - $2",
		failErr:     errors.New("settle refused"),
	}
	svc := stubService(t, conn, now)

	_, err := svc.Complete(context.Background(), "w1", DecisionCompleted)
	if err == nil || !strings.Contains(err.Error(), "settle refused") {
		t.Fatalf("expected the settle failure to surface, got %v", err)
	}
	if !conn.saw("UPDATE withdraws") {
		t.Fatal("status flip was never attempted before the settle failed")
	}
	if !conn.rolledBack {
		t.Fatal("expected rollback: the completed status must not survive a failed settlement")
	}
}

// Documented ledger asymmetry: rejecting a withdraw flips its status but
// does NOT move the reserved amount back from pending_withdraw to
// available_balance. The funds stay parked in pending. This matches the
// production behavior as shipped; it is asserted here so nobody "fixes" it
// silently without a product decision.
func TestComplete_RejectionLeavesReservationParked(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &stubConn{withdrawRow: pendingWithdrawRow(now)}
	svc := stubService(t, conn, now)

	w, err := svc.Complete(context.Background(), "w1", DecisionRejected)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if w.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", w.Status)
	}
	if conn.saw("UPDATE accounts") {
		t.Fatal("rejection must issue no ledger statement; the reservation stays parked")
	}
	if !conn.committed {
		t.Fatal("expected the rejection to commit")
	}
}

func TestComplete_SettlesReservationIntoWithdrawn(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &stubConn{
		withdrawRow: pendingWithdrawRow(now),
		balanceRow:  balanceRow(0, now),
	}
	svc := stubService(t, conn, now)

	w, err := svc.Complete(context.Background(), "w1", DecisionCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if w.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", w.Status)
	}
	if !conn.saw("pending_withdraw - $2") {
		t.Fatal("completion must settle the reserved amount")
	}
	if !conn.committed || conn.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v, want a clean commit", conn.committed, conn.rolledBack)
	}
}
