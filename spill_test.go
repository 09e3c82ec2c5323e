package peel

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeInMemory(t *testing.T) {
	t.Parallel()

	data := []byte("fits comfortably in memory")
	ra, size, cleanup, err := materialize(bytes.NewReader(data))
	require.NoError(t, err)
	defer cleanup()

	require.Equal(t, int64(len(data)), size)
	got := make([]byte, size)
	_, err = ra.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMaterializeSpillsToDisk(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("0123456789"), 10)
	ra, size, cleanup, err := materializeN(bytes.NewReader(data), 16)
	require.NoError(t, err)

	require.Equal(t, int64(len(data)), size)
	got := make([]byte, size)
	_, err = ra.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	f, ok := ra.(*os.File)
	require.True(t, ok, "past the threshold the stream should live in a temp file")
	cleanup()
	_, err = os.Stat(f.Name())
	assert.True(t, os.IsNotExist(err), "cleanup must remove the spill file")
}
