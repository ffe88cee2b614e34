package ledger

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

// Conservation checks for the bucket transfers. A stub driver applies the
// guarded UPDATE ... RETURNING statements to an in-memory account, so the
// real SQL layer, guard behavior, and sentinel mapping are what run here.

type acctConnector struct{ conn *acctConn }

func (c acctConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c acctConnector) Driver() driver.Driver                        { return acctDriver{} }

type acctDriver struct{}

func (acctDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open by dsn not supported")
}

type acctConn struct {
	id        string
	available int64
	pending   int64
	withdrawn int64
	updated   time.Time
}

func (c *acctConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *acctConn) Close() error              { return nil }
func (c *acctConn) Begin() (driver.Tx, error) { return c, nil }

func (c *acctConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return c, nil
}

func (c *acctConn) Commit() error   { return nil }
func (c *acctConn) Rollback() error { return nil }

func (c *acctConn) row() []driver.Value {
	return []driver.Value{c.id, c.available, c.pending, c.withdrawn, c.updated}
}

func (c *acctConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	var amount int64
	if len(args) > 1 {
		if v, ok := args[1].Value.(int64); ok {
			amount = v
		}
	}
	switch {
	case strings.Contains(query, "FOR UPDATE"):
		return &acctRows{row: c.row()}, nil
	case strings.Contains(query, "available_balance + $2"):
		c.available += amount
		return &acctRows{row: c.row()}, nil
	case strings.Contains(query, "available_balance - $2"):
		if c.available < amount {
			// Guard failed: no row updated, no row returned.
			return &acctRows{}, nil
		}
		c.available -= amount
		c.pending += amount
		return &acctRows{row: c.row()}, nil
	case strings.Contains(query, "pending_withdraw - $2"):
		if c.pending < amount {
			return &acctRows{}, nil
		}
		c.pending -= amount
		c.withdrawn += amount
		return &acctRows{row: c.row()}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

type acctRows struct {
	row  []driver.Value
	done bool
}

func (r *acctRows) Columns() []string { return make([]string, 5) }
func (r *acctRows) Close() error      { return nil }

func (r *acctRows) Next(dest []driver.Value) error {
	if r.done || r.row == nil {
		return io.EOF
	}
	copy(dest, r.row)
	r.done = true
	return nil
}

func acctTx(t *testing.T, conn *acctConn) (*sql.Tx, context.Context) {
	t.Helper()
	db := sql.OpenDB(acctConnector{conn})
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx, ctx
}

func TestBucketsConserveAcrossWithdrawLifecycle(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &acctConn{id: "c1", updated: now}
	tx, ctx := acctTx(t, conn)

	b, err := CreditAvailableTx(ctx, tx, "c1", 700, now)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if b.Available != 700 || b.Total() != 700 {
		t.Fatalf("after credit: %+v", b)
	}

	b, err = ReserveForWithdrawTx(ctx, tx, "c1", 700, now)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if b.Available != 0 || b.PendingWithdraw != 700 || b.Total() != 700 {
		t.Fatalf("reserve must move value between buckets, not create or destroy it: %+v", b)
	}

	b, err = SettleWithdrawTx(ctx, tx, "c1", 700, now)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if b.PendingWithdraw != 0 || b.TotalWithdrawn != 700 || b.Total() != 700 {
		t.Fatalf("settle must move pending into withdrawn: %+v", b)
	}
}

func TestReserveBeyondAvailableLeavesBucketsAlone(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &acctConn{id: "c1", available: 100, updated: now}
	tx, ctx := acctTx(t, conn)

	if _, err := ReserveForWithdrawTx(ctx, tx, "c1", 250, now); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if conn.available != 100 || conn.pending != 0 {
		t.Fatalf("failed reserve must not move funds: available=%d pending=%d", conn.available, conn.pending)
	}
}

func TestSettleWithoutReservationFails(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	conn := &acctConn{id: "c1", available: 500, updated: now}
	tx, ctx := acctTx(t, conn)

	if _, err := SettleWithdrawTx(ctx, tx, "c1", 50, now); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if conn.withdrawn != 0 || conn.available != 500 {
		t.Fatalf("failed settle must not move funds: %+v", conn)
	}
}
