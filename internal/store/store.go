// Package store is the durable snapshot cache. Every value is a
// JSON-serialized blob under a namespaced key; a write unconditionally
// replaces the previous value. Staleness is implicit: a snapshot is
// current until the next accepted sync overwrites it.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"portalsync/internal/model"
)

const (
	// keyPrefix namespaces every key this portal writes, so the store
	// file can be shared without collisions.
	keyPrefix  = "portal_"
	sessionKey = keyPrefix + "user_session"
)

// SnapshotKey returns the storage key for a category snapshot.
func SnapshotKey(category string) string {
	return fmt.Sprintf("%s%s_cache", keyPrefix, category)
}

// Store is a SQLite-backed key/value store.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads the value under key into v. The second return is false when
// the key has never been written; that is not an error.
func (s *Store) Get(key string, v any) (bool, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put replaces the value under key.
func (s *Store) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)",
		key, data, time.Now().UTC(),
	)
	return err
}

// Snapshot reads the cached records for a category.
func (s *Store) Snapshot(category string, v any) (bool, error) {
	return s.Get(SnapshotKey(category), v)
}

// PutSnapshot replaces the cached records for a category.
func (s *Store) PutSnapshot(category string, v any) error {
	return s.Put(SnapshotKey(category), v)
}

// SaveSession persists the active user record.
func (s *Store) SaveSession(u model.User) error {
	return s.Put(sessionKey, u)
}

// Session returns the active user record, if a session exists.
func (s *Store) Session() (model.User, bool, error) {
	var u model.User
	found, err := s.Get(sessionKey, &u)
	return u, found, err
}

// Clear removes every key this portal owns, session and snapshots alike.
// Used on logout.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE key LIKE ?", keyPrefix+"%")
	return err
}
