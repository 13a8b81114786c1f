package service

// In-memory fakes for the repository interfaces. Hand-written rather than
// generated: the behaviour under test is thin enough that a map plus a couple
// of recording fields reads better than a mocking framework.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

// testLogger discards everything — service logging is not under test.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// USER REPOSITORY FAKE
// ============================================================================

type fakeUserRepo struct {
	users map[string]*model.User // keyed by ID

	nextID           int
	lastLoginStamped []string // IDs passed to UpdateLastLogin, in order
	cascadeDeleted   []string // IDs passed to DeleteCascade, in order
	attached         []string // "id/provider/providerID" triples, in order
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

// add seeds a user directly, bypassing Create's conflict checks.
func (f *fakeUserRepo) add(u *model.User) *model.User {
	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	if providerID == "" {
		return nil, apperror.NotFound("user", provider+":")
	}
	for _, u := range f.users {
		switch provider {
		case "github":
			if u.GitHubID == providerID {
				return u, nil
			}
		case "google":
			if u.GoogleID == providerID {
				return u, nil
			}
		}
	}
	return nil, apperror.NotFound("user", provider+":"+providerID)
}

func (f *fakeUserRepo) Update(_ context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&u.Name, upd.Name)
	apply(&u.AvatarURL, upd.AvatarURL)
	apply(&u.Skill, upd.Skill)
	apply(&u.Company, upd.Company)
	apply(&u.MBTI, upd.MBTI)
	apply(&u.Goal, upd.Goal)
	apply(&u.SocialLinks, upd.SocialLinks)
	u.UpdatedAt = time.Now().UTC()
	return u, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	f.lastLoginStamped = append(f.lastLoginStamped, id)
	return nil
}

func (f *fakeUserRepo) AttachProvider(_ context.Context, id, provider, providerID, avatarURL string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	switch provider {
	case "github":
		u.GitHubID = providerID
	case "google":
		u.GoogleID = providerID
	}
	if u.AvatarURL == "" {
		u.AvatarURL = avatarURL
	}
	f.attached = append(f.attached, id+"/"+provider+"/"+providerID)
	return nil
}

func (f *fakeUserRepo) DeleteCascade(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	f.cascadeDeleted = append(f.cascadeDeleted, id)
	return nil
}

// ============================================================================
// LIKE REPOSITORY FAKE
// ============================================================================

type fakeLikeRepo struct {
	edges map[string]bool // "from→to"

	listLikedResult   []model.LikedProfile
	listLikedByResult []model.LikedProfile
	lastOpts          repository.ListOptions
}

var _ repository.LikeRepository = (*fakeLikeRepo)(nil)

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{edges: map[string]bool{}}
}

func edgeKey(fromID, toID string) string { return fromID + "→" + toID }

func (f *fakeLikeRepo) CreateEdge(_ context.Context, fromID, toID string) error {
	key := edgeKey(fromID, toID)
	if f.edges[key] {
		return apperror.Conflict("like", "already liked this user")
	}
	f.edges[key] = true
	return nil
}

func (f *fakeLikeRepo) DeleteEdge(_ context.Context, fromID, toID string) error {
	key := edgeKey(fromID, toID)
	if !f.edges[key] {
		return apperror.NotFound("like", key)
	}
	delete(f.edges, key)
	return nil
}

func (f *fakeLikeRepo) ListLiked(_ context.Context, _ string, opts repository.ListOptions) ([]model.LikedProfile, error) {
	f.lastOpts = opts
	return f.listLikedResult, nil
}

func (f *fakeLikeRepo) ListLikedBy(_ context.Context, _ string, opts repository.ListOptions) ([]model.LikedProfile, error) {
	f.lastOpts = opts
	return f.listLikedByResult, nil
}

// ============================================================================
// MESSAGE REPOSITORY FAKE
// ============================================================================

type fakeMessageRepo struct {
	messages map[string]*model.Message
	nextID   int
}

var _ repository.MessageRepository = (*fakeMessageRepo)(nil)

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[string]*model.Message{}}
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *model.Message) error {
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	msg.IsRead = false
	f.messages[msg.ID] = msg
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*model.Message, error) {
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, apperror.NotFound("message", id)
}

func (f *fakeMessageRepo) ListReceived(_ context.Context, userID string, _ repository.ListOptions) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range f.messages {
		if m.ToUserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListSent(_ context.Context, userID string, _ repository.ListOptions) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range f.messages {
		if m.FromUserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, id string) (*model.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, apperror.NotFound("message", id)
	}
	if !m.IsRead {
		m.IsRead = true
		now := time.Now().UTC()
		m.ReadAt = &now
	}
	return m, nil
}

// ============================================================================
// PLACE REPOSITORY FAKE
// ============================================================================

type fakePlaceRepo struct {
	places map[string]*model.WorkPlace
	nextID int

	lastRadius float64 // recorded by FindByLocation
}

var _ repository.PlaceRepository = (*fakePlaceRepo)(nil)

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{places: map[string]*model.WorkPlace{}}
}

func (f *fakePlaceRepo) Create(_ context.Context, place *model.WorkPlace) error {
	f.nextID++
	place.ID = fmt.Sprintf("place-%d", f.nextID)
	now := time.Now().UTC()
	place.CreatedAt = now
	place.UpdatedAt = now
	f.places[place.ID] = place
	return nil
}

func (f *fakePlaceRepo) GetByID(_ context.Context, id string) (*model.WorkPlace, error) {
	if p, ok := f.places[id]; ok {
		return p, nil
	}
	return nil, apperror.NotFound("work place", id)
}

func (f *fakePlaceRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.places[id]; !ok {
		return apperror.NotFound("work place", id)
	}
	delete(f.places, id)
	return nil
}

func (f *fakePlaceRepo) ListByOwner(_ context.Context, userID string) ([]model.WorkPlace, error) {
	out := []model.WorkPlace{}
	for _, p := range f.places {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlaceRepo) ListAllWithOwners(_ context.Context) ([]model.PlaceWithOwner, error) {
	out := []model.PlaceWithOwner{}
	for _, p := range f.places {
		out = append(out, model.PlaceWithOwner{WorkPlace: *p})
	}
	return out, nil
}

func (f *fakePlaceRepo) AddNote(_ context.Context, placeID string, note model.PlaceNote) error {
	p, ok := f.places[placeID]
	if !ok {
		return apperror.NotFound("work place", placeID)
	}
	p.Notes = append(p.Notes, note)
	return nil
}

func (f *fakePlaceRepo) FindByLocation(_ context.Context, lat, lng, radius float64) ([]model.WorkPlace, error) {
	f.lastRadius = radius
	out := []model.WorkPlace{}
	for _, p := range f.places {
		if p.Latitude >= lat-radius && p.Latitude <= lat+radius &&
			p.Longitude >= lng-radius && p.Longitude <= lng+radius {
			out = append(out, *p)
		}
	}
	return out, nil
}
