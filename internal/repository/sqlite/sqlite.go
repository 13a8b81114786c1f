// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// single-server directory app this is plenty, and ":memory:" gives tests a
// real database with zero setup.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
//
// TRANSACTIONS MATTER HERE:
// The likes table and the liked_count/liked_by_count columns on users are two
// views of the same fact. Every edge insert/delete and every counter bump for
// it happen inside one transaction (see like.go), and account deletion walks
// all dependent tables inside one transaction (see user.go). That is what
// keeps the denormalized counters exactly equal to edge cardinality no matter
// how requests interleave.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// Side-effect only — the package's init() registers itself with
	// database/sql as a driver named "sqlite". After this import,
	// sql.Open("sqlite", ...) knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out the per-entity stores
// (Users, Likes, Messages, Places). Each store embeds the same *DB, so
// cross-store transactions (likes ↔ counters, cascade deletion) all run on
// one pool. Go has no method overloading — every store needs its own
// receiver type so each can declare its own Create/GetByID.
type DB struct {
	conn *sql.DB
}

// Users returns the user store backed by this pool.
func (db *DB) Users() *Users { return &Users{db} }

// Likes returns the like-edge store backed by this pool.
func (db *DB) Likes() *Likes { return &Likes{db} }

// Messages returns the message store backed by this pool.
func (db *DB) Messages() *Messages { return &Messages{db} }

// Places returns the work-place store backed by this pool.
func (db *DB) Places() *Places { return &Places{db} }

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/workmates.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ":memory:" GOTCHA:
	// database/sql pools connections, and every new connection to ":memory:"
	// gets its own, completely separate database — the second connection
	// would see no tables at all. Capping the pool at one connection keeps
	// all statements on the single database that was migrated.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where many requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We rely on them for
	// place_notes → work_places ON DELETE CASCADE.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New().
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent —
// safe to run on every startup against an existing database.
func (db *DB) migrate() error {
	// Users. Email is globally unique. Provider IDs use PARTIAL unique
	// indexes ("WHERE ... != ''") so the empty string — our zero value for
	// "no provider linked" — can repeat freely while real provider IDs map
	// to exactly one account.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			github_id      TEXT NOT NULL DEFAULT '',
			google_id      TEXT NOT NULL DEFAULT '',
			name           TEXT NOT NULL,
			avatar_url     TEXT NOT NULL DEFAULT '',
			skill          TEXT NOT NULL DEFAULT '',
			company        TEXT NOT NULL DEFAULT '',
			mbti           TEXT NOT NULL DEFAULT '',
			goal           TEXT NOT NULL DEFAULT '',
			social_links   TEXT NOT NULL DEFAULT '',
			password_hash  TEXT NOT NULL DEFAULT '',
			liked_count    INTEGER NOT NULL DEFAULT 0,
			liked_by_count INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at  DATETIME
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id
			ON users(google_id) WHERE google_id != '';
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Likes. The composite PRIMARY KEY is the uniqueness arbiter for
	// "at most one edge per ordered pair" — even if two concurrent requests
	// both pass an existence check, only one insert can land.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			from_user_id TEXT NOT NULL,
			to_user_id   TEXT NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (from_user_id, to_user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_to_user ON likes(to_user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating likes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id            TEXT PRIMARY KEY,
			from_user_id  TEXT NOT NULL,
			to_user_id    TEXT NOT NULL,
			to_user_email TEXT NOT NULL,
			subject       TEXT NOT NULL,
			content       TEXT NOT NULL,
			is_read       INTEGER NOT NULL DEFAULT 0,
			read_at       DATETIME,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_to_user   ON messages(to_user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_messages_from_user ON messages(from_user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	// Work places + their append-only note log. Notes cascade with their
	// place at the database level; note ordering is rowid (= insertion order).
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS work_places (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			latitude   REAL NOT NULL,
			longitude  REAL NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_work_places_user_id ON work_places(user_id);
		CREATE INDEX IF NOT EXISTS idx_work_places_location ON work_places(latitude, longitude);

		CREATE TABLE IF NOT EXISTS place_notes (
			place_id TEXT NOT NULL REFERENCES work_places(id) ON DELETE CASCADE,
			date     DATETIME NOT NULL,
			content  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_place_notes_place_id ON place_notes(place_id);
	`)
	if err != nil {
		return fmt.Errorf("creating work_places tables: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back on
// error. Shared by the multi-statement operations (likes, cascade deletion).
//
// The rollback-after-commit is a no-op (sql.ErrTxDone), which is why the
// deferred Rollback is safe unconditionally.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}
