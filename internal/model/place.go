package model

import "time"

// WorkPlace is a geo-tagged location owned by exactly one user, with an
// append-only log of timestamped activity notes ("worked on X here today").
//
// Latitude/Longitude are plain degrees. We don't validate coordinate ranges —
// the map frontend treats out-of-range values as "somewhere off the map",
// which is harmless.
type WorkPlace struct {
	ID        string      `json:"id"        db:"id"`
	UserID    string      `json:"userId"    db:"user_id"`
	Name      string      `json:"name"      db:"name"`
	Latitude  float64     `json:"latitude"  db:"latitude"`
	Longitude float64     `json:"longitude" db:"longitude"`
	Notes     []PlaceNote `json:"notes"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`
}

// PlaceNote is one entry in a work place's activity log. Notes are append-only
// and returned in insertion order, which is chronological by construction
// (we never backdate) though not enforced.
type PlaceNote struct {
	Date    time.Time `json:"date"    db:"date"`
	Content string    `json:"content" db:"content"`
}

// PlaceWithOwner pairs a work place with the public profile of its owner.
// Produced by the public /workplace/all listing so the map can render a
// pin together with who works there.
type PlaceWithOwner struct {
	WorkPlace
	Owner PublicProfile `json:"owner"`
}
