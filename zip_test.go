package peel

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowise/peel/internal/testutil"
)

func preprocessBytes(t *testing.T, name string, data []byte, cfg *Config, postprocess bool) string {
	t.Helper()
	src := NewSource(name, bytes.NewReader(data), cfg)
	src.Postprocess = postprocess
	out, err := Preprocess(context.Background(), src)
	require.NoError(t, err)
	got, err := io.ReadAll(out)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	return string(got)
}

func TestZipEndToEnd(t *testing.T) {
	t.Parallel()

	// outer.zip holds outer.txt and inner.zip(inner.txt); the flattened
	// output attributes every line to its entry chain.
	got := preprocessBytes(t, "outer.zip", testutil.NestedZip(t), DefaultConfig(), true)
	assert.Equal(t,
		"outer.txt: outer text file\ninner.zip: inner.txt: inner text file\n",
		got,
	)
}

func TestZipWithoutPostprocess(t *testing.T) {
	t.Parallel()

	archive := testutil.Zip(t,
		testutil.ZipEntry{Name: "a.txt", Data: []byte("alpha")},
		testutil.ZipEntry{Name: "b.txt", Data: []byte("beta")},
	)
	got := preprocessBytes(t, "ab.zip", archive, DefaultConfig(), false)
	assert.Equal(t, "alphabeta", got)
}

func TestZipSkipsDirectories(t *testing.T) {
	t.Parallel()

	archive := testutil.Zip(t,
		testutil.ZipEntry{Name: "dir/"},
		testutil.ZipEntry{Name: "dir/file.txt", Data: []byte("content")},
	)
	got := preprocessBytes(t, "d.zip", archive, DefaultConfig(), false)
	assert.Equal(t, "content", got)
}

func TestZipAdapterMeta(t *testing.T) {
	t.Parallel()

	m := (zipAdapter{}).Meta()
	assert.Equal(t, "zip", m.Name)
	assert.True(t, m.Recurses)
	assert.True(t, m.EnabledByDefault)
	assert.False(t, m.KeepExtensionsWhenSniffing)
}

func TestZipCorruptArchive(t *testing.T) {
	t.Parallel()

	src := NewSource("bad.zip", bytes.NewReader([]byte("this is not a zip file")), DefaultConfig())
	_, err := Preprocess(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.zip")
}
