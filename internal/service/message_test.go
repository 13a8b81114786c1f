package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
)

func newTestMessageService(messages *fakeMessageRepo, users *fakeUserRepo) *MessageService {
	return NewMessageService(messages, users, testLogger())
}

// ============================================================================
// SEND
// ============================================================================

func TestSend(t *testing.T) {
	messages := newFakeMessageRepo()
	users := newFakeUserRepo()
	svc := newTestMessageService(messages, users)

	bob := users.add(&model.User{Email: "bob@example.com", Name: "Bob"})

	msg, err := svc.Send(context.Background(), "user-me", bob.ID, "  hello  ", "  how are you  ")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if msg.ID == "" {
		t.Error("Send() should persist the message")
	}
	if msg.Subject != "hello" || msg.Content != "how are you" {
		t.Errorf("subject/content = %q/%q, want trimmed", msg.Subject, msg.Content)
	}
	if msg.ToUserEmail != "bob@example.com" {
		t.Errorf("ToUserEmail = %q, want the recipient's email snapshotted", msg.ToUserEmail)
	}
	if msg.IsRead {
		t.Error("a new message starts unread")
	}
}

func TestSend_Validation(t *testing.T) {
	users := newFakeUserRepo()
	bob := users.add(&model.User{Email: "bob@example.com", Name: "Bob"})
	svc := newTestMessageService(newFakeMessageRepo(), users)

	tests := []struct {
		name             string
		to               string
		subject, content string
	}{
		{"empty target", "", "hi", "body"},
		{"self message", "user-me", "hi", "body"},
		{"empty subject", bob.ID, "   ", "body"},
		{"overlong subject", bob.ID, strings.Repeat("s", 201), "body"},
		{"empty content", bob.ID, "hi", "   "},
		{"overlong content", bob.ID, "hi", strings.Repeat("c", 10001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), "user-me", tt.to, tt.subject, tt.content)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Send() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSend_TargetMissing(t *testing.T) {
	svc := newTestMessageService(newFakeMessageRepo(), newFakeUserRepo())

	_, err := svc.Send(context.Background(), "user-me", "no-such-user", "hi", "body")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("messaging a missing user should be ErrNotFound, got: %v", err)
	}
}

// ============================================================================
// VISIBILITY
// ============================================================================

func TestGetByID_PartyAccessOnly(t *testing.T) {
	messages := newFakeMessageRepo()
	users := newFakeUserRepo()
	svc := newTestMessageService(messages, users)
	bob := users.add(&model.User{Email: "bob@example.com", Name: "Bob"})

	msg, err := svc.Send(context.Background(), "alice", bob.ID, "hi", "body")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	// Sender and recipient both see it.
	if _, err := svc.GetByID(context.Background(), msg.ID, "alice"); err != nil {
		t.Errorf("sender should see the message: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), msg.ID, bob.ID); err != nil {
		t.Errorf("recipient should see the message: %v", err)
	}

	// A third party is identified but not involved: Forbidden, not NotFound.
	_, err = svc.GetByID(context.Background(), msg.ID, "eve")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("third party should be ErrForbidden, got: %v", err)
	}
}

func TestGetByID_Missing(t *testing.T) {
	svc := newTestMessageService(newFakeMessageRepo(), newFakeUserRepo())

	_, err := svc.GetByID(context.Background(), "no-such-message", "anyone")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing message should be ErrNotFound, got: %v", err)
	}
}

// ============================================================================
// READ STATE
// ============================================================================

func TestMarkRead_RecipientOnly(t *testing.T) {
	messages := newFakeMessageRepo()
	users := newFakeUserRepo()
	svc := newTestMessageService(messages, users)
	bob := users.add(&model.User{Email: "bob@example.com", Name: "Bob"})

	msg, err := svc.Send(context.Background(), "alice", bob.ID, "hi", "body")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	// The sender can't mark their own outgoing message read.
	if _, err := svc.MarkRead(context.Background(), msg.ID, "alice"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("sender marking read should be ErrForbidden, got: %v", err)
	}

	got, err := svc.MarkRead(context.Background(), msg.ID, bob.ID)
	if err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if !got.IsRead || got.ReadAt == nil {
		t.Error("MarkRead() should flip IsRead and stamp ReadAt")
	}

	// Idempotent for the recipient.
	again, err := svc.MarkRead(context.Background(), msg.ID, bob.ID)
	if err != nil {
		t.Fatalf("second MarkRead() error: %v", err)
	}
	if !again.ReadAt.Equal(*got.ReadAt) {
		t.Error("re-marking must preserve the original ReadAt")
	}
}

// ============================================================================
// LISTINGS
// ============================================================================

func TestReceivedAndSent(t *testing.T) {
	messages := newFakeMessageRepo()
	users := newFakeUserRepo()
	svc := newTestMessageService(messages, users)
	bob := users.add(&model.User{Email: "bob@example.com", Name: "Bob"})
	alice := users.add(&model.User{Email: "alice@example.com", Name: "Alice"})

	if _, err := svc.Send(context.Background(), alice.ID, bob.ID, "hi", "body"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	received, err := svc.Received(context.Background(), bob.ID, 1, 20)
	if err != nil {
		t.Fatalf("Received() error: %v", err)
	}
	if len(received) != 1 {
		t.Errorf("received = %d, want 1", len(received))
	}

	sent, err := svc.Sent(context.Background(), alice.ID, 1, 20)
	if err != nil {
		t.Fatalf("Sent() error: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("sent = %d, want 1", len(sent))
	}

	// Bob sent nothing.
	sent, err = svc.Sent(context.Background(), bob.ID, 1, 20)
	if err != nil {
		t.Fatalf("Sent() error: %v", err)
	}
	if len(sent) != 0 {
		t.Errorf("bob's sent = %d, want 0", len(sent))
	}
}
