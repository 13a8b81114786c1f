package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

const (
	MaxSubjectLength = 200
	MaxContentLength = 10000
)

// MessageService implements direct messaging. Delivery is pull-only: the
// recipient sees the message when they next list their inbox — no push, no
// websockets, by design.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewMessageService creates a MessageService.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, logger *slog.Logger) *MessageService {
	return &MessageService{messages: messages, users: users, logger: logger}
}

// Send creates a message from fromID to toID.
//
// The recipient's CURRENT email is snapshotted into the message. If they
// later change their email the snapshot stays — the message records where it
// was addressed at send time.
func (s *MessageService) Send(ctx context.Context, fromID, toID, subject, content string) (*model.Message, error) {
	subject = strings.TrimSpace(subject)
	content = strings.TrimSpace(content)

	if toID == "" {
		return nil, apperror.ValidationFailed("targetUserId", "target user ID is required")
	}
	if fromID == toID {
		return nil, apperror.ValidationFailed("targetUserId", "you cannot message yourself")
	}
	if subject == "" {
		return nil, apperror.ValidationFailed("subject", "subject is required")
	}
	if len(subject) > MaxSubjectLength {
		return nil, apperror.ValidationFailed("subject",
			fmt.Sprintf("subject must be %d characters or less", MaxSubjectLength))
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	target, err := s.users.GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		FromUserID:  fromID,
		ToUserID:    target.ID,
		ToUserEmail: target.Email, // snapshot, see above
		Subject:     subject,
		Content:     content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/message: sending message to %s: %w", toID, err)
	}

	s.logger.Info("message sent",
		slog.String("messageID", msg.ID),
		slog.String("from", fromID),
		slog.String("to", toID),
	)
	return msg, nil
}

// GetByID returns a single message, visible only to its sender or recipient.
// Anyone else gets Forbidden (they're identified, just not a party to the
// conversation).
func (s *MessageService) GetByID(ctx context.Context, id, requesterID string) (*model.Message, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "message ID is required")
	}

	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.FromUserID != requesterID && msg.ToUserID != requesterID {
		return nil, apperror.Forbidden("you are not a party to this message")
	}
	return msg, nil
}

// Received lists messages addressed to userID, newest first.
func (s *MessageService) Received(ctx context.Context, userID string, page, limit int) ([]model.Message, error) {
	page, limit = clampPage(page, limit)
	msgs, err := s.messages.ListReceived(ctx, userID, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/message: listing received for %s: %w", userID, err)
	}
	return msgs, nil
}

// Sent lists messages userID sent, newest first.
func (s *MessageService) Sent(ctx context.Context, userID string, page, limit int) ([]model.Message, error) {
	page, limit = clampPage(page, limit)
	msgs, err := s.messages.ListSent(ctx, userID, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/message: listing sent for %s: %w", userID, err)
	}
	return msgs, nil
}

// MarkRead transitions a message to read. Only the recipient may do this —
// a sender "reading" their own outgoing message would be meaningless.
// Re-marking an already-read message succeeds and changes nothing; the
// original readAt stamp is preserved.
func (s *MessageService) MarkRead(ctx context.Context, id, requesterID string) (*model.Message, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "message ID is required")
	}

	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.ToUserID != requesterID {
		return nil, apperror.Forbidden("only the recipient can mark a message read")
	}

	updated, err := s.messages.MarkRead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/message: marking message %s read: %w", id, err)
	}
	return updated, nil
}
