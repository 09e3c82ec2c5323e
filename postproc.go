package peel

import (
	"bufio"
	"bytes"
	"io"
)

var prefixMeta = &Meta{
	Name:        "prefix",
	Version:     1,
	Description: "Prepends the accumulated container path to every line of plain content",
	Recurses:    false,
}

// prefixAdapter is the no-op capability the dispatcher substitutes for
// unmatched units when postprocessing is requested. It adjusts only the
// display text: every line of the unit is prefixed with the accumulated
// container path, so downstream matches can be attributed to the entry
// they came from.
type prefixAdapter struct{}

func (prefixAdapter) Meta() *Meta { return prefixMeta }

func (prefixAdapter) Adapt(src *Source, _ *Match) (Iter, error) {
	out := src.withReader(newPrefixReader(src.Prefix, src.Reader))
	// The output is plain text. Clearing Postprocess makes the next
	// dispatch pass it through instead of prefixing again.
	out.Postprocess = false
	return One(out), nil
}

// prefixReader streams its input line by line, emitting each line with
// prefix prepended and a trailing newline. The final line gets a
// newline even if the input lacked one.
type prefixReader struct {
	br      *bufio.Reader
	prefix  []byte
	pending []byte
	err     error
}

func newPrefixReader(prefix string, r io.Reader) *prefixReader {
	return &prefixReader{br: bufio.NewReader(r), prefix: []byte(prefix)}
}

func (p *prefixReader) Read(b []byte) (int, error) {
	for len(p.pending) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		line, err := p.br.ReadBytes('\n')
		if err != nil {
			p.err = err
		}
		if len(line) > 0 {
			body := bytes.TrimSuffix(line, []byte{'\n'})
			p.pending = append(p.pending[:0], p.prefix...)
			p.pending = append(p.pending, body...)
			p.pending = append(p.pending, '\n')
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}
