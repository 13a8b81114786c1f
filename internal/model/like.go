package model

import "time"

// Like is a directed edge: FromUserID liked ToUserID.
//
// The database enforces at most one edge per ordered pair via a composite
// primary key (from_user_id, to_user_id). Self-loops are rejected in the
// service layer before the store is ever touched.
type Like struct {
	FromUserID string    `json:"fromUserId" db:"from_user_id"`
	ToUserID   string    `json:"toUserId"   db:"to_user_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

// LikedProfile is a public profile joined with the edge that produced it.
// Listings are ordered by LikedAt descending (most recent like first).
type LikedProfile struct {
	PublicProfile
	LikedAt time.Time `json:"likedAt"`
}
