// Package sqlite is the persistent tier of the users cache.
//
// WHY PERSIST A CACHE?
// The BFF restarts on every deploy. Without a persistent tier, the first
// minutes after a restart send one /users?ids= request per page view until
// the in-memory tier warms up again. A small SQLite file keeps recently seen
// profiles across restarts; entries older than the TTL are ignored on read
// and removed by Prune.
//
// modernc.org/sqlite is a pure Go driver: no cgo, so the binary still cross
// compiles with a plain `go build`.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
	ttl  time.Duration
	now  func() time.Time
}

// New opens the database at dbPath (":memory:" works for tests), applies the
// pragmas and runs migrations. Rows older than ttl are treated as misses.
func New(dbPath string, ttl time.Duration) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; pin the pool to one so
	// every query sees the same tables.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, ttl: ttl, now: time.Now}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the cache table. CREATE ... IF NOT EXISTS keeps it
// idempotent across restarts.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cached_users (
			id         INTEGER PRIMARY KEY,
			payload    TEXT    NOT NULL,
			fetched_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cached_users_fetched_at ON cached_users(fetched_at);
	`)
	if err != nil {
		return fmt.Errorf("creating cached_users table: %w", err)
	}
	return nil
}

// Prune deletes rows older than the TTL and reports how many went.
func (db *DB) Prune(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM cached_users WHERE fetched_at < ?`, db.cutoff())
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning cached users: %w", err)
	}
	return res.RowsAffected()
}

// cutoff is the oldest fetched_at (unix seconds) still considered fresh.
func (db *DB) cutoff() int64 {
	if db.ttl <= 0 {
		return 0
	}
	return db.now().Add(-db.ttl).Unix()
}
