package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

// Likes is the like-edge store. Obtained via DB.Likes().
type Likes struct {
	*DB
}

// Compile-time check that *Likes implements repository.LikeRepository.
var _ repository.LikeRepository = (*Likes)(nil)

// CreateEdge inserts the (from→to) edge and bumps both denormalized counters
// in a single transaction.
//
// RACE SAFETY:
// Two concurrent likes for the same pair can both believe the edge doesn't
// exist yet. We don't pre-check at all — "INSERT OR IGNORE" lets the
// composite primary key arbitrate. If zero rows were inserted the edge
// already existed; we return Conflict and, because the counter updates
// haven't run yet, no compensation is ever needed. The loser's transaction
// simply never touches the counters.
func (s *Likes) CreateEdge(ctx context.Context, fromID, toID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO likes (from_user_id, to_user_id, created_at)
			 VALUES (?, ?, CURRENT_TIMESTAMP)`,
			fromID, toID)
		if err != nil {
			return fmt.Errorf("sqlite: inserting like %s→%s: %w", fromID, toID, err)
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: inserting like %s→%s: %w", fromID, toID, err)
		}
		if inserted == 0 {
			// Edge already present. Failing loudly (rather than silently
			// succeeding) keeps client-side counter state predictable.
			return apperror.Conflict("like", "already liked this user")
		}

		// In-place arithmetic, not read-modify-write: the database adds 1 to
		// whatever the current value is, so concurrent likes toward the same
		// user can't lose updates.
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET liked_count = liked_count + 1 WHERE id = ?`,
			fromID); err != nil {
			return fmt.Errorf("sqlite: incrementing liked_count for %s: %w", fromID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET liked_by_count = liked_by_count + 1 WHERE id = ?`,
			toID); err != nil {
			return fmt.Errorf("sqlite: incrementing liked_by_count for %s: %w", toID, err)
		}
		return nil
	})
}

// DeleteEdge removes the (from→to) edge and decrements both counters.
// Returns apperror.ErrNotFound if the edge doesn't exist — unliking someone
// you never liked is an explicit error, mirroring CreateEdge's conflict.
func (s *Likes) DeleteEdge(ctx context.Context, fromID, toID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE from_user_id = ? AND to_user_id = ?`,
			fromID, toID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting like %s→%s: %w", fromID, toID, err)
		}

		deleted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: deleting like %s→%s: %w", fromID, toID, err)
		}
		if deleted == 0 {
			return apperror.NotFound("like", fromID+"→"+toID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET liked_count = liked_count - 1 WHERE id = ?`,
			fromID); err != nil {
			return fmt.Errorf("sqlite: decrementing liked_count for %s: %w", fromID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET liked_by_count = liked_by_count - 1 WHERE id = ?`,
			toID); err != nil {
			return fmt.Errorf("sqlite: decrementing liked_by_count for %s: %w", toID, err)
		}
		return nil
	})
}

// ListLiked returns the public profiles this user has liked, most recent
// edge first.
func (s *Likes) ListLiked(ctx context.Context, userID string, opts repository.ListOptions) ([]model.LikedProfile, error) {
	return s.listEdgeProfiles(ctx,
		`SELECT u.id, u.name, u.avatar_url, u.skill, u.company, u.mbti, u.goal,
			u.social_links, u.liked_by_count, l.created_at
		 FROM likes l
		 JOIN users u ON u.id = l.to_user_id
		 WHERE l.from_user_id = ?
		 ORDER BY l.created_at DESC, l.rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, opts)
}

// ListLikedBy is the mirror query: who liked this user.
func (s *Likes) ListLikedBy(ctx context.Context, userID string, opts repository.ListOptions) ([]model.LikedProfile, error) {
	return s.listEdgeProfiles(ctx,
		`SELECT u.id, u.name, u.avatar_url, u.skill, u.company, u.mbti, u.goal,
			u.social_links, u.liked_by_count, l.created_at
		 FROM likes l
		 JOIN users u ON u.id = l.from_user_id
		 WHERE l.to_user_id = ?
		 ORDER BY l.created_at DESC, l.rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, opts)
}

// listEdgeProfiles runs an edge-joined profile query and scans the rows.
// Both listings share the exact same column shape, so the scan is shared too.
func (s *Likes) listEdgeProfiles(ctx context.Context, query, userID string, opts repository.ListOptions) ([]model.LikedProfile, error) {
	rows, err := s.conn.QueryContext(ctx, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing like edges for %s: %w", userID, err)
	}
	defer rows.Close()

	// Non-nil empty slice so an empty page serializes as [] not null.
	profiles := []model.LikedProfile{}
	for rows.Next() {
		var p model.LikedProfile
		if err := rows.Scan(
			&p.ID, &p.Name, &p.AvatarURL, &p.Skill, &p.Company, &p.MBTI,
			&p.Goal, &p.SocialLinks, &p.LikedByCount, &p.LikedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning liked profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating liked profiles: %w", err)
	}
	return profiles, nil
}
