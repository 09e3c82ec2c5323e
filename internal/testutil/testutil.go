// Package testutil provides shared test fixtures: archive builders and
// an in-memory cache store.
package testutil

import (
	"archive/tar"
	"bytes"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// ZipEntry is one file to place in a test archive.
type ZipEntry struct {
	Name string
	Data []byte
}

// Zip builds an uncompressed zip archive in memory.
func Zip(t *testing.T, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Store})
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("writing zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// NestedZip builds the canonical two-level fixture: outer.txt plus an
// inner.zip containing inner.txt.
func NestedZip(t *testing.T) []byte {
	t.Helper()
	inner := Zip(t, ZipEntry{Name: "inner.txt", Data: []byte("inner text file")})
	return Zip(t,
		ZipEntry{Name: "outer.txt", Data: []byte("outer text file")},
		ZipEntry{Name: "inner.zip", Data: inner},
	)
}

// Tar builds a tar archive in memory.
func Tar(t *testing.T, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0o644, Size: int64(len(e.Data))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header %s: %v", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			t.Fatalf("writing tar entry %s: %v", e.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	return buf.Bytes()
}

// Gzip compresses data in memory.
func Gzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// MemStore is an in-memory cache.Store recording activity for
// assertions.
type MemStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
	setErr  error
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

// FailSets makes every subsequent Set return err.
func (m *MemStore) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

func (m *MemStore) Get(partition string, key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	blob, ok := m.entries[partition+"\x00"+string(key)]
	return blob, ok, nil
}

func (m *MemStore) Set(partition string, key, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[partition+"\x00"+string(key)] = bytes.Clone(blob)
	return nil
}

func (m *MemStore) Close() error { return nil }

// Len reports the number of stored entries.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sets reports how many Set calls were made.
func (m *MemStore) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Partitions returns the distinct partitions with at least one entry.
func (m *MemStore) Partitions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for k := range m.entries {
		p := k[:bytes.IndexByte([]byte(k), 0)]
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
