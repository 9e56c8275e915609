// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere
// Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: the driver's init() registers itself with
	// database/sql under the name "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The per-table repositories (UserDB,
// PostDB) are views over the same pool — the two tables live in the same
// file and share the foreign key between them, so there is exactly one
// connection pool and one migration path.
type DB struct {
	conn *sql.DB
}

// Users returns the repository.UserRepository view of this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Posts returns the repository.PostRepository view of this database.
func (db *DB) Posts() *PostDB {
	return &PostDB{conn: db.conn}
}

// New opens (or creates) the SQLite database at dbPath and ensures the
// schema exists.
//
// dbPath examples:
//   - "data/microblog.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection — with the default pool,
	// a second connection would see a fresh empty database. One connection
	// keeps every query on the same store.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening —
	// important for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We need them ON: the
	// posts→users reference and its ON DELETE CASCADE do nothing otherwise.
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

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// this is safe to run on every startup.
//
// SCHEMA NOTES:
//   - username and email carry UNIQUE constraints — these, not any
//     service-level pre-check, are the authoritative guard against two
//     concurrent registrations racing each other.
//   - is_admin is NOT NULL DEFAULT 0: the flag can never be null and new
//     accounts are never admins.
//   - posts.author_id is NOT NULL with ON DELETE CASCADE: a post always has
//     exactly one author, and deleting an account removes its posts in the
//     same implicit transaction as the user row.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			username       TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			email          TEXT NOT NULL UNIQUE,
			favorite_place TEXT NOT NULL DEFAULT 'You',
			profile_pic    TEXT NOT NULL DEFAULT '',
			is_admin       INTEGER NOT NULL DEFAULT 0,
			password_hash  TEXT NOT NULL,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			slug       TEXT NOT NULL,
			author_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
		CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	return nil
}

// uniqueViolation inspects a driver error and reports which unique column
// was violated, if any. modernc.org/sqlite surfaces constraint failures as
// "constraint failed: UNIQUE constraint failed: users.username" — matching
// on the table.column suffix is the stable way to tell username conflicts
// from email conflicts.
func uniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return "username", true
	case strings.Contains(msg, "users.email"):
		return "email", true
	}
	return "", true
}
