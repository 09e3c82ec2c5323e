// Package disk provides a filesystem-backed cache store.
//
// Each partition is a directory; each entry is a file named by the hex
// BLAKE3 digest of its key, written to a temp file and renamed into
// place so readers never observe partial entries.
package disk

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

const dirPerm = 0o700

// Store implements cache.Store on the local filesystem.
type Store struct {
	dir string
}

// Open opens (creating if needed) a disk store rooted at dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Get retrieves the blob stored under (partition, key).
func (s *Store) Get(partition string, key []byte) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(partition, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores blob under (partition, key).
func (s *Store) Set(partition string, key, blob []byte) error {
	path := s.path(partition, key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "entry-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Close implements cache.Store. The disk store holds no open handles.
func (s *Store) Close() error { return nil }

// path derives the entry file for a key. Keys are arbitrary bytes, so
// the filename is a fixed-width digest rather than the key itself.
func (s *Store) path(partition string, key []byte) string {
	sum := blake3.Sum256(key)
	return filepath.Join(s.dir, partition, hex.EncodeToString(sum[:]))
}
