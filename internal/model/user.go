// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account in the directory.
//
// A user can come from three places: a manual email join, GitHub OAuth, or
// Google OAuth. We always generate our own internal string ID (xid) so our
// primary keys are never tied to a third-party's numbering scheme.
//
// WHY GitHubID / GoogleID AS string (not *string)?
// Both are optional — a manual account has neither. We use the empty string
// as the zero value rather than a nullable pointer; the database enforces
// uniqueness only on non-empty values (partial unique index), so two manual
// accounts with "" don't collide.
//
// COUNTERS:
// LikedCount is the number of like edges this user has initiated;
// LikedByCount is the number received. Both are denormalized copies of the
// edge cardinality in the likes table and are only ever mutated with in-place
// SQL arithmetic inside the same transaction that inserts or deletes an edge,
// so they can never drift from the edges themselves.
type User struct {
	ID           string     `json:"id"           db:"id"`
	Email        string     `json:"email"        db:"email"`
	GitHubID     string     `json:"githubId,omitempty" db:"github_id"` // GitHub's numeric user ID, stored as text
	GoogleID     string     `json:"googleId,omitempty" db:"google_id"` // Google's "sub" claim
	Name         string     `json:"name"         db:"name"`
	AvatarURL    string     `json:"avatarUrl"    db:"avatar_url"`
	Skill        string     `json:"skill"        db:"skill"`        // free text, e.g. "backend, Go"
	Company      string     `json:"company"      db:"company"`
	MBTI         string     `json:"mbti"         db:"mbti"`
	Goal         string     `json:"goal"         db:"goal"`         // what they want to collaborate on
	SocialLinks  string     `json:"socialLinks"  db:"social_links"` // free-text links, newline separated
	PasswordHash string     `json:"-"            db:"password_hash"` // bcrypt hash, empty for OAuth-only accounts — never serialized
	LikedCount   int        `json:"likedCount"   db:"liked_count"`
	LikedByCount int        `json:"likedByCount" db:"liked_by_count"`
	CreatedAt    time.Time  `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt"    db:"updated_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// PublicProfile is the projection of a User that other users are allowed to
// see — no email, no provider IDs, no password hash.
//
// WHY A SEPARATE STRUCT?
// Returning *User from public listings and relying on json:"-" only hides the
// hash; the email and provider IDs would still leak. A dedicated projection
// makes "what is public" explicit and greppable.
type PublicProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatarUrl"`
	Skill        string `json:"skill"`
	Company      string `json:"company"`
	MBTI         string `json:"mbti"`
	Goal         string `json:"goal"`
	SocialLinks  string `json:"socialLinks"`
	LikedByCount int    `json:"likedByCount"`
}

// Public returns the shareable projection of this user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		Skill:        u.Skill,
		Company:      u.Company,
		MBTI:         u.MBTI,
		Goal:         u.Goal,
		SocialLinks:  u.SocialLinks,
		LikedByCount: u.LikedByCount,
	}
}
