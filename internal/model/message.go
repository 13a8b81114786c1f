package model

import "time"

// Message is a direct message from one user to another.
//
// ToUserEmail is a snapshot of the recipient's email at send time. It is
// deliberately NOT kept in sync with later email changes — the message is a
// historical record of where it was addressed.
//
// Read state is a one-way transition: IsRead flips false→true exactly once
// (re-marking an already-read message is a no-op) and ReadAt records when.
type Message struct {
	ID          string     `json:"id"          db:"id"`
	FromUserID  string     `json:"fromUserId"  db:"from_user_id"`
	ToUserID    string     `json:"toUserId"    db:"to_user_id"`
	ToUserEmail string     `json:"toUserEmail" db:"to_user_email"`
	Subject     string     `json:"subject"     db:"subject"`
	Content     string     `json:"content"     db:"content"`
	IsRead      bool       `json:"isRead"      db:"is_read"`
	ReadAt      *time.Time `json:"readAt,omitempty" db:"read_at"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"   db:"updated_at"`
}
