package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

// Messages is the message store. Obtained via DB.Messages().
type Messages struct {
	*DB
}

// Compile-time check that *Messages implements repository.MessageRepository.
var _ repository.MessageRepository = (*Messages)(nil)

const messageColumns = `id, from_user_id, to_user_id, to_user_email, subject,
	content, is_read, read_at, created_at, updated_at`

func scanMessage(row interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	var readAt sql.NullTime
	err := row.Scan(
		&m.ID, &m.FromUserID, &m.ToUserID, &m.ToUserEmail, &m.Subject,
		&m.Content, &m.IsRead, &readAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}

// Create inserts a new message. ToUserEmail must already be snapshotted by
// the caller (the service looks up the recipient and copies their current
// email in — see service/message.go).
func (s *Messages) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	msg.IsRead = false

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (id, from_user_id, to_user_id, to_user_email,
			subject, content, is_read, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		msg.ID, msg.FromUserID, msg.ToUserID, msg.ToUserEmail,
		msg.Subject, msg.Content, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message: %w", err)
	}
	return nil
}

// GetByID retrieves a single message. Access control (sender/recipient only)
// is the service layer's job — the store just fetches.
func (s *Messages) GetByID(ctx context.Context, id string) (*model.Message, error) {
	m, err := scanMessage(s.conn.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlite: getting message %s: %w", id, err)
	}
	return m, nil
}

// ListReceived returns messages addressed to userID, newest first.
func (s *Messages) ListReceived(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Message, error) {
	return s.listMessages(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE to_user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, opts)
}

// ListSent returns messages userID sent, newest first.
func (s *Messages) ListSent(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Message, error) {
	return s.listMessages(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE from_user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, opts)
}

func (s *Messages) listMessages(ctx context.Context, query, userID string, opts repository.ListOptions) ([]model.Message, error) {
	rows, err := s.conn.QueryContext(ctx, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages for %s: %w", userID, err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}
	return messages, nil
}

// MarkRead flips is_read to true and stamps read_at, then returns the updated
// message. Re-marking an already-read message leaves read_at at its original
// value — the "WHERE is_read = 0" guard makes the stamp write-once.
func (s *Messages) MarkRead(ctx context.Context, id string) (*model.Message, error) {
	now := time.Now().UTC()
	_, err := s.conn.ExecContext(ctx,
		`UPDATE messages SET is_read = 1, read_at = ?, updated_at = ?
		 WHERE id = ? AND is_read = 0`,
		now, now, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking message %s read: %w", id, err)
	}

	// Zero affected rows means either "already read" (fine, idempotent) or
	// "doesn't exist" — GetByID disambiguates and produces the NotFound.
	return s.GetByID(ctx, id)
}
