package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

// Pagination defaults shared by the listing endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SocialService implements the like/unlike graph operations.
//
// THE COUNTER INVARIANT:
// likedCount/likedByCount on users must always equal the number of matching
// rows in the likes table. The service never touches counters itself — the
// repository moves edge and counters together in one transaction, so this
// layer only decides WHETHER an operation is allowed, never how to keep the
// numbers straight.
type SocialService struct {
	likes  repository.LikeRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewSocialService creates a SocialService.
func NewSocialService(likes repository.LikeRepository, users repository.UserRepository, logger *slog.Logger) *SocialService {
	return &SocialService{likes: likes, users: users, logger: logger}
}

// Like creates the (from→to) edge.
//
// Rules, in check order:
//   - no self-likes, ever — rejected before any store access, so like(A,A)
//     fails the same way whether or not A exists
//   - the target must exist (404 otherwise)
//   - at most one edge per pair — a repeat like is an explicit conflict,
//     NOT a silent success, so client counter state stays predictable
func (s *SocialService) Like(ctx context.Context, fromID, toID string) error {
	if toID == "" {
		return apperror.ValidationFailed("targetUserId", "target user ID is required")
	}
	if fromID == toID {
		return apperror.ValidationFailed("targetUserId", "you cannot like yourself")
	}

	if _, err := s.users.GetByID(ctx, toID); err != nil {
		return err
	}

	if err := s.likes.CreateEdge(ctx, fromID, toID); err != nil {
		return err
	}

	s.logger.Info("like created",
		slog.String("from", fromID),
		slog.String("to", toID),
	)
	return nil
}

// Unlike removes the (from→to) edge. Unliking an edge that doesn't exist is
// an explicit not-found, mirroring Like's conflict on repeats.
func (s *SocialService) Unlike(ctx context.Context, fromID, toID string) error {
	if toID == "" {
		return apperror.ValidationFailed("targetUserId", "target user ID is required")
	}
	if fromID == toID {
		return apperror.ValidationFailed("targetUserId", "you cannot unlike yourself")
	}

	if err := s.likes.DeleteEdge(ctx, fromID, toID); err != nil {
		return err
	}

	s.logger.Info("like removed",
		slog.String("from", fromID),
		slog.String("to", toID),
	)
	return nil
}

// LikedPage is one page of an edge-joined profile listing.
//
// HasMore is the full-page heuristic: true iff this page came back
// full-sized. When the total is an exact multiple of the page size the
// client gets one extra empty page — a known, accepted imprecision that
// saves a COUNT query per listing.
type LikedPage struct {
	Users   []model.LikedProfile `json:"users"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
	HasMore bool                 `json:"hasMore"`
}

// LikedUsers returns the profiles userID has liked, most recent first.
func (s *SocialService) LikedUsers(ctx context.Context, userID string, page, limit int) (*LikedPage, error) {
	page, limit = clampPage(page, limit)

	profiles, err := s.likes.ListLiked(ctx, userID, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/social: listing liked users for %s: %w", userID, err)
	}

	return &LikedPage{
		Users:   profiles,
		Page:    page,
		Limit:   limit,
		HasMore: len(profiles) == limit,
	}, nil
}

// LikedByUsers returns the profiles that liked userID, most recent first.
func (s *SocialService) LikedByUsers(ctx context.Context, userID string, page, limit int) (*LikedPage, error) {
	page, limit = clampPage(page, limit)

	profiles, err := s.likes.ListLikedBy(ctx, userID, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/social: listing liked-by users for %s: %w", userID, err)
	}

	return &LikedPage{
		Users:   profiles,
		Page:    page,
		Limit:   limit,
		HasMore: len(profiles) == limit,
	}, nil
}

// clampPage normalizes page/limit to sane values: page ≥ 1, limit in
// [1, MaxPageSize] defaulting to DefaultPageSize.
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
