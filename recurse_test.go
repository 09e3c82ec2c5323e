package peel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowise/peel/internal/testutil"
)

func expandAll(t *testing.T, src *Source) string {
	t.Helper()
	d, err := dispatchSource(src)
	require.NoError(t, err)
	require.NotNil(t, d.adapter)
	it, err := Expand(d.adapter, d.match, d.src)
	require.NoError(t, err)
	out, err := io.ReadAll(Concat(context.Background(), it))
	require.NoError(t, err)
	return string(out)
}

func TestExpandDepthFirstOrder(t *testing.T) {
	t.Parallel()

	// outer[a, sub[b, c], d] must flatten to a b c d: depth-first,
	// left to right, in the archive's own entry order.
	sub := testutil.Zip(t,
		testutil.ZipEntry{Name: "b.txt", Data: []byte("B")},
		testutil.ZipEntry{Name: "c.txt", Data: []byte("C")},
	)
	outer := testutil.Zip(t,
		testutil.ZipEntry{Name: "a.txt", Data: []byte("A")},
		testutil.ZipEntry{Name: "sub.zip", Data: sub},
		testutil.ZipEntry{Name: "d.txt", Data: []byte("D")},
	)

	src := NewSource("outer.zip", bytes.NewReader(outer), DefaultConfig())
	assert.Equal(t, "ABCD", expandAll(t, src))
}

func TestExpandDeeplyNested(t *testing.T) {
	t.Parallel()

	inner := testutil.Zip(t, testutil.ZipEntry{Name: "leaf.txt", Data: []byte("bottom")})
	for range 2 {
		inner = testutil.Zip(t, testutil.ZipEntry{Name: "next.zip", Data: inner})
	}

	src := NewSource("top.zip", bytes.NewReader(inner), DefaultConfig())
	assert.Equal(t, "bottom", expandAll(t, src))
}

func TestExpandDepthLimitSealsBranch(t *testing.T) {
	t.Parallel()

	sub := testutil.Zip(t, testutil.ZipEntry{Name: "b.txt", Data: []byte("B")})
	outer := testutil.Zip(t,
		testutil.ZipEntry{Name: "a.txt", Data: []byte("A")},
		testutil.ZipEntry{Name: "sub.zip", Data: sub},
		testutil.ZipEntry{Name: "d.txt", Data: []byte("D")},
	)

	cfg := DefaultConfig()
	cfg.MaxDepth = 1
	src := NewSource("outer.zip", bytes.NewReader(outer), cfg)

	// The nested archive branch is replaced by exactly one diagnostic
	// leaf carrying the accumulated prefix and the depth reached;
	// sibling branches are unaffected.
	got := expandAll(t, src)
	assert.Equal(t, "Asub.zip: [peel: max recursion depth reached (1)]\nD", got)
}

func TestExpandPropagatesAdapterErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("decode exploded")
	bad := &testAdapter{
		meta: Meta{Name: "bad", Version: 1, Extensions: []string{"bad"}, Recurses: true, EnabledByDefault: true},
		adapt: func(src *Source, _ *Match) (Iter, error) {
			return IterFunc(func(context.Context) (*Source, error) {
				return nil, boom
			}), nil
		},
	}
	cfg := DefaultConfig()
	cfg.Custom = []Adapter{bad}

	src := NewSource("broken.bad", strings.NewReader("x"), cfg)
	d, err := dispatchSource(src)
	require.NoError(t, err)
	it, err := Expand(d.adapter, d.match, d.src)
	require.NoError(t, err)

	_, err = io.ReadAll(Concat(context.Background(), it))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken.bad")
	assert.Contains(t, err.Error(), "bad")
}

func TestExpandContextCancellation(t *testing.T) {
	t.Parallel()

	src := NewSource("outer.zip", bytes.NewReader(testutil.NestedZip(t)), DefaultConfig())
	d, err := dispatchSource(src)
	require.NoError(t, err)
	it, err := Expand(d.adapter, d.match, d.src)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = it.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcatJoinsLeavesInOrder(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	srcs := []*Source{
		NewSource("a", strings.NewReader("one"), cfg),
		NewSource("b", strings.NewReader("two"), cfg),
		NewSource("c", strings.NewReader("three"), cfg),
	}
	i := 0
	it := IterFunc(func(context.Context) (*Source, error) {
		if i == len(srcs) {
			return nil, io.EOF
		}
		i++
		return srcs[i-1], nil
	})

	out, err := io.ReadAll(Concat(context.Background(), it))
	require.NoError(t, err)
	assert.Equal(t, "onetwothree", string(out))
}
