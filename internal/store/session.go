// Package store persists serialized session state (change history, workflow
// graph) in a local SQLite database, addressed by opaque keys. The engine
// itself never looks inside the values; it hands over the plain value forms
// produced by history.State and workflow.State.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load when no value exists for the key.
var ErrNotFound = errors.New("session key not found")

// SessionStore is a key/value store backed by one SQLite file.
type SessionStore struct {
	db *sql.DB
}

// Open opens (or creates) the session database at path.
func Open(path string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SessionStore{db: db}, nil
}

// Save upserts the value for a key.
func (s *SessionStore) Save(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

// Load returns the value for a key, or ErrNotFound.
func (s *SessionStore) Load(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM sessions WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	return value, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *SessionStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys, oldest update first.
func (s *SessionStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM sessions ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the underlying database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}
