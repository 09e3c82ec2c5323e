package peel

import (
	"bufio"
	"fmt"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// readAheadSize is the capacity of the dispatcher's read-ahead
	// buffer. Sniffing peeks into this buffer without consuming it.
	readAheadSize = 1 << 16

	// sniffLen bounds how much of the stream the mimetype detector may
	// inspect.
	sniffLen = 3072
)

// dispatch is the dispatcher's resolution for one source. A nil adapter
// means passthrough: the (re-buffered) source is a leaf and its bytes
// flow to the output unchanged.
type dispatch struct {
	src     *Source
	adapter Adapter
	match   *Match
	active  []Adapter
}

// dispatchSource wraps src's stream in a read-ahead buffer and resolves
// which adapter applies:
//
//   - a match yields the adapter, the match reason, and the active
//     adapter list (needed later for cache-key shape);
//   - no match with passthrough allowed yields either the prefix
//     adapter (when postprocessing is requested) or a plain
//     passthrough;
//   - no match on a real top-level file with sniffing disabled is an
//     error: such files should have been filtered out upstream.
func dispatchSource(src *Source) (*dispatch, error) {
	cfg := src.Config
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	name := path.Base(src.Path)
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyFilename, src.Path)
	}

	br := bufio.NewReaderSize(src.Reader, readAheadSize)
	src = src.withReader(br)

	var mime string
	if cfg.Sniff {
		buf, err := br.Peek(sniffLen)
		if err != nil && len(buf) == 0 && err != io.EOF {
			return nil, fmt.Errorf("peel: peeking %s: %w", src.Path, err)
		}
		mime = mimetype.Detect(buf).String()
		cfg.log().Debug("sniffed mimetype", "path", src.Path, "mimetype", mime)
	}

	adapter, match, ok := reg.Match(FileMeta{Name: name, MIME: mime})
	if ok {
		return &dispatch{src: src, adapter: adapter, match: match, active: reg.Active()}, nil
	}

	// Passthrough is allowed for units nested inside a container and,
	// when sniffing is on, for top-level files too: in both cases an
	// unmatched unit is plain content.
	allowCat := !src.RealFile || cfg.Sniff
	if !allowCat {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, src.Path)
	}
	if src.Postprocess {
		return &dispatch{
			src:     src,
			adapter: &prefixAdapter{},
			match:   &Match{Kind: MatchExtension, Value: "default"},
		}, nil
	}
	return &dispatch{src: src}, nil
}
