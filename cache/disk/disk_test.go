package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	defer s.Close()

	key := []byte("some serialized cache key")
	blob := []byte("compressed decode result")

	_, ok, err := s.Get("zip.v1", key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("zip.v1", key, blob))
	got, ok, err := s.Get("zip.v1", key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, blob, got)
}

func TestStorePartitionsAreIndependent(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	defer s.Close()

	key := []byte("shared key")
	require.NoError(t, s.Set("zip.v1", key, []byte("one")))

	// Same key, new partition: a version bump starts from empty.
	_, ok, err := s.Get("zip.v2", key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("zip.v2", key, []byte("two")))
	got, ok, err := s.Get("zip.v1", key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), got)
}

func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	defer s.Close()

	key := []byte("k")
	require.NoError(t, s.Set("p.v1", key, []byte("old")))
	require.NoError(t, s.Set("p.v1", key, []byte("new")))

	got, ok, err := s.Get("p.v1", key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestStoreLayout(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "cache")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("tar.v3", []byte("key"), []byte("blob")))

	entries, err := os.ReadDir(filepath.Join(dir, "tar.v3"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Fixed-width digest name, not raw key bytes.
	assert.Len(t, entries[0].Name(), 64)
}

func TestOpenEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := Open("")
	require.Error(t, err)
}
