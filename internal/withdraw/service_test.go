package withdraw

import (
	"context"
	"database/sql"
	"testing"
)

// Input validation lives here; the transactional money movement is covered
// by the stub-driver tests in service_tx_test.go.

func TestRequest_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	ctx := context.Background()

	if _, err := svc.Request(ctx, "", RequestInput{BankName: "b", AccountName: "a", AccountNumber: "1"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing chatter, got %v", err)
	}
	if _, err := svc.Request(ctx, "c1", RequestInput{AccountName: "a", AccountNumber: "1"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing bank name, got %v", err)
	}
	if _, err := svc.Request(ctx, "c1", RequestInput{BankName: "b", AccountNumber: "1"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing account name, got %v", err)
	}
	if _, err := svc.Request(ctx, "c1", RequestInput{BankName: "b", AccountName: "a"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing account number, got %v", err)
	}
}

func TestComplete_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	ctx := context.Background()

	if _, err := svc.Complete(ctx, "", DecisionCompleted); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing id, got %v", err)
	}
	if _, err := svc.Complete(ctx, "w1", Decision("approved")); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown decision, got %v", err)
	}
	if _, err := svc.Complete(ctx, "w1", Decision("")); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for empty decision, got %v", err)
	}
}

func TestBalance_RejectsEmptyChatter(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	if _, err := svc.Balance(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestListByChatter_RejectsEmptyID(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	if _, _, err := svc.ListByChatter(context.Background(), "", 1); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
