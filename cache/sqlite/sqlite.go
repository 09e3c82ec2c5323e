// Package sqlite provides a SQLite-backed cache store.
//
// All entries live in one database file, which keeps many small decode
// results from fragmenting into thousands of files. The pure Go driver
// avoids cgo.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	partition TEXT NOT NULL,
	key       BLOB NOT NULL,
	blob      BLOB NOT NULL,
	PRIMARY KEY (partition, key)
)`

// Store implements cache.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache database path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL lets concurrent executions read while one commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get retrieves the blob stored under (partition, key).
func (s *Store) Get(partition string, key []byte) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRow(
		"SELECT blob FROM entries WHERE partition = ? AND key = ?",
		partition, key,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Set stores blob under (partition, key), replacing any existing entry.
func (s *Store) Set(partition string, key, blob []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO entries (partition, key, blob) VALUES (?, ?, ?) "+
			"ON CONFLICT (partition, key) DO UPDATE SET blob = excluded.blob",
		partition, key, blob,
	)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
