package message

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestCreateText_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	ctx := context.Background()

	if _, err := svc.CreateText(ctx, CreateTextRequest{SenderID: "a", ReceiverID: "b", Body: "hi"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing session, got %v", err)
	}
	if _, err := svc.CreateText(ctx, CreateTextRequest{SessionID: "s", ReceiverID: "b", Body: "hi"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing sender, got %v", err)
	}
	if _, err := svc.CreateText(ctx, CreateTextRequest{SessionID: "s", SenderID: "a", ReceiverID: "b", Body: ""}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for empty body, got %v", err)
	}
}

func TestCreateText_SanitizerStripsMarkup(t *testing.T) {
	svc := NewService((*sql.DB)(nil))

	got := strings.TrimSpace(svc.sanitizer.Sanitize(`<script>alert(1)</script>hello <b>there</b>`))
	if strings.Contains(got, "<") {
		t.Fatalf("expected markup stripped, got %q", got)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "there") {
		t.Fatalf("expected text preserved, got %q", got)
	}

	// A body that is nothing but markup sanitizes to empty and must be
	// rejected before any insert.
	if _, err := svc.CreateText(context.Background(), CreateTextRequest{
		SessionID: "s", SenderID: "a", ReceiverID: "b", Body: "<script>x</script>",
	}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for markup-only body, got %v", err)
	}
}

func TestCreateVoice_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	ctx := context.Background()

	if _, err := svc.CreateVoice(ctx, CreateVoiceRequest{SessionID: "s", SenderID: "a", ReceiverID: "b"}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing voice url, got %v", err)
	}
	if _, err := svc.CreateVoice(ctx, CreateVoiceRequest{SessionID: "s", SenderID: "a", ReceiverID: "b", VoiceURL: "u", DurationSeconds: -1}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for negative duration, got %v", err)
	}
}

func TestListBySession_RejectsEmptyID(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	if _, err := svc.ListBySession(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
