package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

// Users is the user store. Obtained via DB.Users().
type Users struct {
	*DB
}

// Compile-time check that *Users implements repository.UserRepository.
var _ repository.UserRepository = (*Users)(nil)

// userColumns is the canonical SELECT list for users. Every scanUser call
// must match this order exactly.
const userColumns = `id, email, github_id, google_id, name, avatar_url,
	skill, company, mbti, goal, social_links, password_hash,
	liked_count, liked_by_count, created_at, updated_at, last_login_at`

// scanUser reads one users row into a model.User. Works for both *sql.Row
// and *sql.Rows because both expose Scan with the same signature.
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.GitHubID, &u.GoogleID, &u.Name, &u.AvatarURL,
		&u.Skill, &u.Company, &u.MBTI, &u.Goal, &u.SocialLinks, &u.PasswordHash,
		&u.LikedCount, &u.LikedByCount, &u.CreatedAt, &u.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

// isUniqueViolation reports whether err is SQLite complaining about a UNIQUE
// constraint (or partial unique index) on the given column.
//
// modernc.org/sqlite doesn't export a typed constraint error, but the message
// format is stable: "constraint failed: UNIQUE constraint failed: users.email".
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// Create inserts a new user. The caller's struct is modified in place:
// ID, CreatedAt, and UpdatedAt are filled here.
//
// Returns apperror.ErrConflict if the email is already registered. The UNIQUE
// constraint is the arbiter — no racy pre-check SELECT.
func (s *Users) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, github_id, google_id, name, avatar_url,
			skill, company, mbti, goal, social_links, password_hash,
			liked_count, liked_by_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		user.ID, user.Email, user.GitHubID, user.GoogleID, user.Name, user.AvatarURL,
		user.Skill, user.Company, user.MBTI, user.Goal, user.SocialLinks, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict("user", "email already registered")
		}
		if isUniqueViolation(err, "users.github_id") || isUniqueViolation(err, "users.google_id") {
			return apperror.Conflict("user", "provider account already linked")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	user.LikedCount = 0
	user.LikedByCount = 0
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *Users) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (s *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// GetByProviderID retrieves a user by OAuth provider identity.
// provider is "github" or "google"; anything else is a programming error.
func (s *Users) GetByProviderID(ctx context.Context, provider, providerID string) (*model.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	// column comes from providerColumn's fixed whitelist, never from user
	// input, so interpolating it is safe.
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ? AND `+column+` != ''`,
		providerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", provider+":"+providerID)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s id: %w", provider, err)
	}
	return u, nil
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case "github":
		return "github_id", nil
	case "google":
		return "google_id", nil
	default:
		return "", fmt.Errorf("sqlite: unknown OAuth provider %q", provider)
	}
}

// Update applies a partial profile update and returns the updated record.
// Nil fields in upd are left untouched.
func (s *Users) Update(ctx context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	// Build SET clauses only for the fields that were provided. The column
	// names are hardcoded here, not caller-supplied — no injection surface.
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	apply := func(column string, val *string) {
		if val != nil {
			set = append(set, column+" = ?")
			args = append(args, *val)
		}
	}
	apply("name", upd.Name)
	apply("avatar_url", upd.AvatarURL)
	apply("skill", upd.Skill)
	apply("company", upd.Company)
	apply("mbti", upd.MBTI)
	apply("goal", upd.Goal)
	apply("social_links", upd.SocialLinks)

	args = append(args, id)
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return s.GetByID(ctx, id)
}

// UpdateLastLogin stamps last_login_at with the current time.
func (s *Users) UpdateLastLogin(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating last login for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// AttachProvider links an OAuth identity to an existing account. Used when
// someone who joined by email later logs in via GitHub/Google with the same
// email address — one person, one account, two login methods.
//
// The avatar is only filled in if the account doesn't have one yet; a
// hand-picked avatar beats the provider default.
func (s *Users) AttachProvider(ctx context.Context, id, provider, providerID, avatarURL string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}

	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?,
			avatar_url = CASE WHEN avatar_url = '' THEN ? ELSE avatar_url END,
			updated_at = ?, last_login_at = ?
		 WHERE id = ?`,
		providerID, avatarURL, time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err, "users."+column) {
			return apperror.Conflict("user", provider+" account already linked to another user")
		}
		return fmt.Errorf("sqlite: attaching %s identity to user %s: %w", provider, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// DeleteCascade removes a user and everything that references them, in one
// transaction:
//
//  1. Owned work places (place_notes follow via ON DELETE CASCADE)
//  2. Like edges touching the user — for each edge the COUNTERPART's counter
//     is decremented (the deleted user's own counters vanish with the row)
//  3. Messages the user sent or received
//  4. The user row itself
//
// A failure at any step rolls the whole cascade back, so we never end up
// with a half-deleted account.
func (s *Users) DeleteCascade(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Existence check doubles as the NotFound source. Inside the tx so
		// nothing can delete the user between check and cascade.
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking user %s: %w", id, err)
		}
		if exists == 0 {
			return apperror.NotFound("user", id)
		}

		// 1. Work places. The place_notes rows go with them (FK cascade).
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM work_places WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting work places of %s: %w", id, err)
		}

		// 2a. Edges the user initiated: each target loses one liked_by.
		// A correlated subquery does the per-counterpart decrement in one
		// statement instead of a Go-side loop.
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET liked_by_count = liked_by_count - 1
			 WHERE id IN (SELECT to_user_id FROM likes WHERE from_user_id = ?)`,
			id); err != nil {
			return fmt.Errorf("sqlite: decrementing liked_by counters: %w", err)
		}

		// 2b. Edges pointing at the user: each liker loses one liked.
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET liked_count = liked_count - 1
			 WHERE id IN (SELECT from_user_id FROM likes WHERE to_user_id = ?)`,
			id); err != nil {
			return fmt.Errorf("sqlite: decrementing liked counters: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE from_user_id = ? OR to_user_id = ?`,
			id, id); err != nil {
			return fmt.Errorf("sqlite: deleting like edges of %s: %w", id, err)
		}

		// 3. Messages in both directions.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM messages WHERE from_user_id = ? OR to_user_id = ?`,
			id, id); err != nil {
			return fmt.Errorf("sqlite: deleting messages of %s: %w", id, err)
		}

		// 4. The account itself.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM users WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
		}

		return nil
	})
}
