package peel

import (
	"context"
	"io"
)

// Source is one logical byte stream in flight through the pipeline,
// along with the bookkeeping the pipeline needs to match, recurse, and
// display it. A source's stream is consumed by exactly one operation,
// exactly once.
type Source struct {
	// Reader supplies the raw bytes.
	Reader io.Reader

	// Path is a display and matching hint. For nested units it is the
	// entry name inside the enclosing container, not a filesystem path.
	Path string

	// RealFile marks whether Path names an actual on-disk file. Only
	// real files participate in caching and mtime lookups.
	RealFile bool

	// Depth counts the nested-container expansions applied to reach
	// this unit from its top-level file.
	Depth int

	// Prefix accumulates the display path of enclosing containers,
	// e.g. "outer.zip: inner.zip: ". It only ever grows by appending.
	Prefix string

	// Postprocess requests line-prefixing for units no adapter handles,
	// so matches inside archives can be attributed to their entry.
	Postprocess bool

	// Config is the shared configuration snapshot for this execution.
	Config *Config
}

// NewSource returns a source for an in-flight stream that does not
// correspond to an on-disk file.
func NewSource(path string, r io.Reader, cfg *Config) *Source {
	return &Source{Reader: r, Path: path, Config: cfg}
}

// FileSource returns a source for an opened on-disk file. Real files
// are eligible for caching.
func FileSource(path string, r io.Reader, cfg *Config) *Source {
	return &Source{Reader: r, Path: path, RealFile: true, Config: cfg}
}

// Child derives the source for an entry named name inside this
// container: depth one deeper, display prefix extended with the entry
// name. Used by archive adapters.
func (s *Source) Child(name string, r io.Reader) *Source {
	return &Source{
		Reader:      r,
		Path:        name,
		Depth:       s.Depth + 1,
		Prefix:      s.Prefix + name + ": ",
		Postprocess: s.Postprocess,
		Config:      s.Config,
	}
}

// Derive is Child without extending the display prefix. Used by
// transcoding adapters (decompression) where the unit keeps its
// identity and only the byte stream changes.
func (s *Source) Derive(name string, r io.Reader) *Source {
	return &Source{
		Reader:      r,
		Path:        name,
		Depth:       s.Depth + 1,
		Prefix:      s.Prefix,
		Postprocess: s.Postprocess,
		Config:      s.Config,
	}
}

func (s *Source) withReader(r io.Reader) *Source {
	c := *s
	c.Reader = r
	return &c
}

// Iter is a lazy sequence of sources. Next returns io.EOF after the
// final element. Production is pull-driven: implementations do no
// decoding ahead of the most recent Next call, which bounds memory to
// one buffering window per nesting level.
type Iter interface {
	Next(ctx context.Context) (*Source, error)
}

// IterFunc adapts a function to the Iter interface.
type IterFunc func(ctx context.Context) (*Source, error)

// Next implements Iter.
func (f IterFunc) Next(ctx context.Context) (*Source, error) { return f(ctx) }

// One returns an Iter yielding exactly one source.
func One(src *Source) Iter {
	done := false
	return IterFunc(func(context.Context) (*Source, error) {
		if done {
			return nil, io.EOF
		}
		done = true
		return src, nil
	})
}

func closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
