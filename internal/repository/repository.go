// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the concrete
// implementation; tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/workmates/internal/model"
)

// ListOptions carries offset pagination for listing queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserUpdate holds a partial profile update. Nil fields are left unchanged.
//
// WHY POINTERS?
// With plain strings we couldn't tell "clear this field" (send "") apart from
// "don't touch this field" (absent from the JSON body). A nil pointer means
// the caller didn't mention the field at all.
type UserUpdate struct {
	Name        *string
	AvatarURL   *string
	Skill       *string
	Company     *string
	MBTI        *string
	Goal        *string
	SocialLinks *string
}

// UserRepository persists user accounts.
//
// Provider lookups take the provider name ("github" or "google") plus the
// provider's own ID for the account; both columns carry partial unique
// indexes so one external identity maps to at most one row.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	AttachProvider(ctx context.Context, id, provider, providerID, avatarURL string) error

	// DeleteCascade removes the user and every record that references them:
	// owned work places (and their notes), like edges in either direction
	// (decrementing the counterpart's counter per edge), and messages sent or
	// received. Runs in a single transaction — all or nothing.
	DeleteCascade(ctx context.Context, id string) error
}

// LikeRepository persists the directed like edges and keeps the denormalized
// counters on the users table in lockstep with them.
type LikeRepository interface {
	// CreateEdge inserts (from→to) and increments from.likedCount and
	// to.likedByCount in one transaction. Returns apperror.ErrConflict if the
	// edge already exists; in that case no counter moves.
	CreateEdge(ctx context.Context, fromID, toID string) error

	// DeleteEdge removes (from→to) and decrements both counters in one
	// transaction. Returns apperror.ErrNotFound if there is no such edge.
	DeleteEdge(ctx context.Context, fromID, toID string) error

	// ListLiked returns the profiles this user has liked, most recent edge
	// first. ListLikedBy is the mirror: who liked this user.
	ListLiked(ctx context.Context, userID string, opts ListOptions) ([]model.LikedProfile, error)
	ListLikedBy(ctx context.Context, userID string, opts ListOptions) ([]model.LikedProfile, error)
}

// MessageRepository persists direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	ListReceived(ctx context.Context, userID string, opts ListOptions) ([]model.Message, error)
	ListSent(ctx context.Context, userID string, opts ListOptions) ([]model.Message, error)
	MarkRead(ctx context.Context, id string) (*model.Message, error)
}

// PlaceRepository persists work places and their note logs.
type PlaceRepository interface {
	Create(ctx context.Context, place *model.WorkPlace) error
	GetByID(ctx context.Context, id string) (*model.WorkPlace, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]model.WorkPlace, error)
	ListAllWithOwners(ctx context.Context) ([]model.PlaceWithOwner, error)
	AddNote(ctx context.Context, placeID string, note model.PlaceNote) error

	// FindByLocation returns places inside a bounding box of ±radius degrees
	// around (lat, lng). A box, not a true radius — close enough for
	// "what's near me" at city scale.
	FindByLocation(ctx context.Context, lat, lng, radius float64) ([]model.WorkPlace, error)
}
