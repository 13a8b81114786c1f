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

// Places is the work-place store. Obtained via DB.Places().
type Places struct {
	*DB
}

// Compile-time check that *Places implements repository.PlaceRepository.
var _ repository.PlaceRepository = (*Places)(nil)

// Create inserts a work place and any initial notes it carries.
// Place and notes go in together inside one transaction so a failed note
// insert doesn't leave a half-created place behind.
func (s *Places) Create(ctx context.Context, place *model.WorkPlace) error {
	place.ID = xid.New().String()
	now := time.Now().UTC()
	place.CreatedAt = now
	place.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO work_places (id, user_id, name, latitude, longitude, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			place.ID, place.UserID, place.Name, place.Latitude, place.Longitude,
			place.CreatedAt, place.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting work place: %w", err)
		}

		for _, note := range place.Notes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO place_notes (place_id, date, content) VALUES (?, ?, ?)`,
				place.ID, note.Date, note.Content,
			); err != nil {
				return fmt.Errorf("sqlite: inserting place note: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a work place with its full note log.
func (s *Places) GetByID(ctx context.Context, id string) (*model.WorkPlace, error) {
	var p model.WorkPlace
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude, created_at, updated_at
		 FROM work_places WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Latitude, &p.Longitude, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("work place", id)
		}
		return nil, fmt.Errorf("sqlite: getting work place %s: %w", id, err)
	}

	notes, err := s.notesFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Notes = notes
	return &p, nil
}

// Delete removes a work place. Its notes follow via the FK cascade.
func (s *Places) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM work_places WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting work place %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("work place", id)
	}
	return nil
}

// ListByOwner returns all places owned by userID, newest first, notes included.
func (s *Places) ListByOwner(ctx context.Context, userID string) ([]model.WorkPlace, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, name, latitude, longitude, created_at, updated_at
		 FROM work_places WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing work places for %s: %w", userID, err)
	}
	defer rows.Close()

	places, err := scanPlaces(rows)
	if err != nil {
		return nil, err
	}
	return s.attachNotes(ctx, places)
}

// ListAllWithOwners is the public map listing: every place joined with a
// public projection of its owner. Notes are included so the map popup can
// show recent activity without a second round trip.
func (s *Places) ListAllWithOwners(ctx context.Context) ([]model.PlaceWithOwner, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.name, p.latitude, p.longitude, p.created_at, p.updated_at,
			u.id, u.name, u.avatar_url, u.skill, u.company, u.mbti, u.goal,
			u.social_links, u.liked_by_count
		 FROM work_places p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.created_at DESC, p.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing work places with owners: %w", err)
	}
	defer rows.Close()

	result := []model.PlaceWithOwner{}
	for rows.Next() {
		var pw model.PlaceWithOwner
		if err := rows.Scan(
			&pw.ID, &pw.UserID, &pw.Name, &pw.Latitude, &pw.Longitude,
			&pw.CreatedAt, &pw.UpdatedAt,
			&pw.Owner.ID, &pw.Owner.Name, &pw.Owner.AvatarURL, &pw.Owner.Skill,
			&pw.Owner.Company, &pw.Owner.MBTI, &pw.Owner.Goal,
			&pw.Owner.SocialLinks, &pw.Owner.LikedByCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning work place with owner: %w", err)
		}
		result = append(result, pw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating work places with owners: %w", err)
	}

	for i := range result {
		notes, err := s.notesFor(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Notes = notes
	}
	return result, nil
}

// AddNote appends one entry to a place's activity log and touches updated_at.
func (s *Places) AddNote(ctx context.Context, placeID string, note model.PlaceNote) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE work_places SET updated_at = ? WHERE id = ?`,
			time.Now().UTC(), placeID)
		if err != nil {
			return fmt.Errorf("sqlite: touching work place %s: %w", placeID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("work place", placeID)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO place_notes (place_id, date, content) VALUES (?, ?, ?)`,
			placeID, note.Date, note.Content,
		); err != nil {
			return fmt.Errorf("sqlite: inserting place note: %w", err)
		}
		return nil
	})
}

// FindByLocation returns places inside a bounding box of ±radius degrees
// around the point. A box comparison uses the (latitude, longitude) index;
// a true haversine radius would force a full scan.
func (s *Places) FindByLocation(ctx context.Context, lat, lng, radius float64) ([]model.WorkPlace, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, name, latitude, longitude, created_at, updated_at
		 FROM work_places
		 WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		 ORDER BY created_at DESC`,
		lat-radius, lat+radius, lng-radius, lng+radius)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding work places near (%f, %f): %w", lat, lng, err)
	}
	defer rows.Close()

	places, err := scanPlaces(rows)
	if err != nil {
		return nil, err
	}
	return s.attachNotes(ctx, places)
}

// notesFor loads a place's notes in insertion order (rowid ascending).
func (s *Places) notesFor(ctx context.Context, placeID string) ([]model.PlaceNote, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT date, content FROM place_notes WHERE place_id = ? ORDER BY rowid`,
		placeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes for place %s: %w", placeID, err)
	}
	defer rows.Close()

	notes := []model.PlaceNote{}
	for rows.Next() {
		var n model.PlaceNote
		if err := rows.Scan(&n.Date, &n.Content); err != nil {
			return nil, fmt.Errorf("sqlite: scanning place note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating place notes: %w", err)
	}
	return notes, nil
}

func scanPlaces(rows *sql.Rows) ([]model.WorkPlace, error) {
	places := []model.WorkPlace{}
	for rows.Next() {
		var p model.WorkPlace
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Latitude, &p.Longitude,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning work place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating work places: %w", err)
	}
	return places, nil
}

func (s *Places) attachNotes(ctx context.Context, places []model.WorkPlace) ([]model.WorkPlace, error) {
	for i := range places {
		notes, err := s.notesFor(ctx, places[i].ID)
		if err != nil {
			return nil, err
		}
		places[i].Notes = notes
	}
	return places, nil
}
