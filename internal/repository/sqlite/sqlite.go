// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install or manage, which fits a
// single-server text-sharing deployment. Use ":memory:" in tests for a fresh,
// disposable database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server constructs one DB at startup and closes it on
// shutdown — no package-level connection state.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// sql.Open does not actually connect — it only creates the pool manager —
// so we Ping to surface a bad path or permissions problem immediately
// instead of at the first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress.
	// Needed because listing queries run the page and count reads in
	// parallel against the pool.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. texts.user_id references
	// users(id), so turn enforcement on.
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

// Close closes the connection pool. Callers should defer this right after a
// successful New — it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so running at every startup is safe.
func (db *DB) migrate() error {
	// users first — texts carries a foreign key to it.
	//
	// github_id is nullable: email/password accounts have no GitHub link,
	// and SQLite's UNIQUE constraint ignores NULLs, so any number of
	// non-GitHub accounts can coexist.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// texts: user_id is NULL for anonymously created texts. Those rows have
	// no owner and can never be deleted through the API (DeleteOwned matches
	// on user_id = ?, which a NULL never satisfies).
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS texts (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'public'
			           CHECK (visibility IN ('public', 'unlisted', 'private')),
			user_id    TEXT REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_texts_created_at ON texts(created_at);
		CREATE INDEX IF NOT EXISTS idx_texts_visibility ON texts(visibility);
		CREATE INDEX IF NOT EXISTS idx_texts_user_id ON texts(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating texts table: %w", err)
	}

	return nil
}
