// Package storage persists receiver state in SQLite: the credentials bundle,
// the pending persistent ids and a history of received notifications.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
)

var (
	ErrNotFound = errors.New("not found")
)

// DefaultNotificationTTL is how long received notifications are kept
const DefaultNotificationTTL = 7 * 24 * time.Hour

// DB is the receiver state database
type DB struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens or creates the database at dbPath. ttl bounds the notification
// history, DefaultNotificationTTL when zero.
func Open(dbPath string, ttl time.Duration) (*DB, error) {
	if ttl == 0 {
		ttl = DefaultNotificationTTL
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to enable WAL mode: %w", err), db.Close())
	}

	store := &DB{db: db, ttl: ttl}
	if err := store.initSchema(); err != nil {
		return nil, multierr.Append(err, db.Close())
	}

	return store, nil
}

// initSchema creates database tables
func (s *DB) initSchema() error {
	schema := `
	-- Credential bundles, stored as JSON
	CREATE TABLE IF NOT EXISTS credentials (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- Persistent ids received since the last login response
	CREATE TABLE IF NOT EXISTS persistent_ids (
		position INTEGER PRIMARY KEY,
		persistent_id TEXT UNIQUE NOT NULL
	);

	-- Received notification payloads
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		persistent_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		received_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_received ON notifications(received_at DESC);
	CREATE INDEX IF NOT EXISTS idx_notifications_expires ON notifications(expires_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error
func (s *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		return multierr.Append(err, tx.Rollback())
	}
	return tx.Commit()
}

// Close closes the database connection
func (s *DB) Close() error {
	return s.db.Close()
}
