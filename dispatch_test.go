package peel

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowise/peel/internal/testutil"
)

func TestDispatchPassthroughPreservesBytes(t *testing.T) {
	t.Parallel()

	content := []byte("plain text, no adapter involved\nsecond line")
	src := NewSource("notes.txt", bytes.NewReader(content), DefaultConfig())

	d, err := dispatchSource(src)
	require.NoError(t, err)
	require.Nil(t, d.adapter, "expected passthrough")

	got, err := io.ReadAll(d.src.Reader)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDispatchRealFileWithoutSniffingErrors(t *testing.T) {
	t.Parallel()

	src := FileSource("notes.txt", strings.NewReader("text"), DefaultConfig())
	_, err := dispatchSource(src)
	require.ErrorIs(t, err, ErrNoAdapter)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestDispatchSubstitutesPrefixAdapter(t *testing.T) {
	t.Parallel()

	src := NewSource("entry.txt", strings.NewReader("text"), DefaultConfig())
	src.Postprocess = true
	src.Prefix = "outer.zip: "

	d, err := dispatchSource(src)
	require.NoError(t, err)
	require.NotNil(t, d.adapter)
	assert.Equal(t, "prefix", d.adapter.Meta().Name)
}

func TestDispatchMatchCarriesActiveAdapters(t *testing.T) {
	t.Parallel()

	src := NewSource("a.zip", bytes.NewReader(testutil.Zip(t)), DefaultConfig())
	d, err := dispatchSource(src)
	require.NoError(t, err)
	require.NotNil(t, d.adapter)
	assert.Equal(t, "zip", d.adapter.Meta().Name)
	require.Len(t, d.active, 3)
}

func TestDispatchSniffsContent(t *testing.T) {
	t.Parallel()

	// Extension gives nothing away; the content does.
	cfg := DefaultConfig()
	cfg.Sniff = true
	src := NewSource("payload.bin", bytes.NewReader(testutil.NestedZip(t)), cfg)

	d, err := dispatchSource(src)
	require.NoError(t, err)
	require.NotNil(t, d.adapter)
	assert.Equal(t, "zip", d.adapter.Meta().Name)
	assert.Equal(t, MatchMIME, d.match.Kind)
}

func TestDispatchSniffPeekIsNonConsuming(t *testing.T) {
	t.Parallel()

	content := []byte("just some text that gets sniffed")
	cfg := DefaultConfig()
	cfg.Sniff = true
	src := NewSource("data.txt", bytes.NewReader(content), cfg)

	d, err := dispatchSource(src)
	require.NoError(t, err)
	require.Nil(t, d.adapter)

	got, err := io.ReadAll(d.src.Reader)
	require.NoError(t, err)
	assert.Equal(t, content, got, "sniffing must not consume stream bytes")
}

func TestDispatchEmptyFilename(t *testing.T) {
	t.Parallel()

	src := NewSource("", strings.NewReader(""), DefaultConfig())
	_, err := dispatchSource(src)
	require.ErrorIs(t, err, ErrEmptyFilename)
}
