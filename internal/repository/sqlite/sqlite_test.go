package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/workmates/internal/model"
)

// ============================================================================
// SHARED TEST HELPERS
// ============================================================================
// Every test gets a fresh in-memory database — a real SQLite instance with
// the real schema, gone when the test ends. No mocks, no fixtures on disk.

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(\":memory:\") error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// mustCreateUser inserts a minimal user and fails the test on error.
func mustCreateUser(t *testing.T, db *DB, email, name string) *model.User {
	t.Helper()

	u := &model.User{Email: email, Name: name}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create(%s) error: %v", email, err)
	}
	return u
}

// mustGetUser reloads a user by ID, failing the test if they're gone.
func mustGetUser(t *testing.T, db *DB, id string) *model.User {
	t.Helper()

	u, err := db.Users().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s) error: %v", id, err)
	}
	return u
}

// countRows is a raw helper for asserting on tables the repository interfaces
// don't expose directly (place_notes after a cascade, for example).
func countRows(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("counting rows (%s): %v", query, err)
	}
	return n
}
