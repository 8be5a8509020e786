package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound signals a missing key or record. Callers decide whether that
// means "empty" or "failed".
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded is returned by Store.Put when a value is larger than the
// store's configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// InitDB opens (or creates) the SQLite database backing the key-value store.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// Store is a flat string key-value store over SQLite. It mirrors the
// storage model the board data was designed for: JSON payloads under fixed
// string keys, with a total-size quota on writes.
type Store struct {
	db       *sql.DB
	maxValue int // bytes per value; 0 means unlimited
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SetQuota caps the size of any single value. Writes over the cap fail with
// ErrQuotaExceeded.
func (s *Store) SetQuota(bytes int) {
	s.maxValue = bytes
}

// Get returns the value under key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	row := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key)

	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

// Put writes value under key, replacing any previous value.
func (s *Store) Put(key, value string) error {
	if s.maxValue > 0 && len(value) > s.maxValue {
		return fmt.Errorf("writing key %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}

	_, err := s.db.Exec(`
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
