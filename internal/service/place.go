package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

const (
	MaxPlaceNameLength = 100
	MaxNoteLength      = 2000

	// DefaultNearbyRadius / MaxNearbyRadius bound the /workplace/nearby
	// bounding box, in degrees. 0.05° is roughly 5km of latitude.
	DefaultNearbyRadius = 0.05
	MaxNearbyRadius     = 1.0
)

// PlaceService implements work-place management: geo-tagged locations each
// user publishes, with an append-only log of activity notes.
type PlaceService struct {
	places repository.PlaceRepository
	logger *slog.Logger
}

// NewPlaceService creates a PlaceService.
func NewPlaceService(places repository.PlaceRepository, logger *slog.Logger) *PlaceService {
	return &PlaceService{places: places, logger: logger}
}

// Create publishes a new work place for ownerID. Coordinates are taken as
// given — no range validation, matching the map frontend's tolerance.
// Initial notes are optional; notes with a zero date get stamped "now".
func (s *PlaceService) Create(ctx context.Context, ownerID, name string, lat, lng float64, notes []model.PlaceNote) (*model.WorkPlace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "place name is required")
	}
	if len(name) > MaxPlaceNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("place name must be %d characters or less", MaxPlaceNameLength))
	}

	now := time.Now().UTC()
	cleaned := make([]model.PlaceNote, 0, len(notes))
	for _, n := range notes {
		n.Content = strings.TrimSpace(n.Content)
		if n.Content == "" {
			return nil, apperror.ValidationFailed("notes", "note content must not be empty")
		}
		if len(n.Content) > MaxNoteLength {
			return nil, apperror.ValidationFailed("notes",
				fmt.Sprintf("note content must be %d characters or less", MaxNoteLength))
		}
		if n.Date.IsZero() {
			n.Date = now
		}
		cleaned = append(cleaned, n)
	}

	place := &model.WorkPlace{
		UserID:    ownerID,
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
		Notes:     cleaned,
	}
	if err := s.places.Create(ctx, place); err != nil {
		return nil, fmt.Errorf("service/place: creating place %q: %w", name, err)
	}

	s.logger.Info("work place created",
		slog.String("placeID", place.ID),
		slog.String("owner", ownerID),
	)
	return place, nil
}

// Delete removes a place. Only the owner may delete it; anyone else is
// Forbidden, not NotFound — the place exists, they just don't own it.
func (s *PlaceService) Delete(ctx context.Context, id, requesterID string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "place ID is required")
	}

	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if place.UserID != requesterID {
		return apperror.Forbidden("you do not own this work place")
	}

	if err := s.places.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/place: deleting place %s: %w", id, err)
	}

	s.logger.Info("work place deleted",
		slog.String("placeID", id),
		slog.String("owner", requesterID),
	)
	return nil
}

// ListOwn returns the caller's places.
func (s *PlaceService) ListOwn(ctx context.Context, ownerID string) ([]model.WorkPlace, error) {
	places, err := s.places.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/place: listing places for %s: %w", ownerID, err)
	}
	return places, nil
}

// ListAll is the public map feed: every place with its owner's public
// profile. No authentication required.
func (s *PlaceService) ListAll(ctx context.Context) ([]model.PlaceWithOwner, error) {
	places, err := s.places.ListAllWithOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/place: listing all places: %w", err)
	}
	return places, nil
}

// AddNote appends one activity note to a place the requester owns.
func (s *PlaceService) AddNote(ctx context.Context, placeID, requesterID string, date time.Time, content string) (*model.WorkPlace, error) {
	if placeID == "" {
		return nil, apperror.ValidationFailed("id", "place ID is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "note content is required")
	}
	if len(content) > MaxNoteLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("note content must be %d characters or less", MaxNoteLength))
	}

	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if place.UserID != requesterID {
		return nil, apperror.Forbidden("you do not own this work place")
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}
	if err := s.places.AddNote(ctx, placeID, model.PlaceNote{Date: date, Content: content}); err != nil {
		return nil, fmt.Errorf("service/place: adding note to %s: %w", placeID, err)
	}

	return s.places.GetByID(ctx, placeID)
}

// FindNearby returns places around (lat, lng) within ±radius degrees.
// Bounding box, not a true radius — see the repository for the tradeoff.
func (s *PlaceService) FindNearby(ctx context.Context, lat, lng, radius float64) ([]model.WorkPlace, error) {
	if radius <= 0 {
		radius = DefaultNearbyRadius
	}
	if radius > MaxNearbyRadius {
		radius = MaxNearbyRadius
	}

	places, err := s.places.FindByLocation(ctx, lat, lng, radius)
	if err != nil {
		return nil, fmt.Errorf("service/place: finding places near (%f, %f): %w", lat, lng, err)
	}
	return places, nil
}
