package peel

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
)

var tarMeta = &Meta{
	Name:             "tar",
	Version:          1,
	Description:      "Reads tar archives as a stream and recurses into each entry",
	Recurses:         true,
	Extensions:       []string{"tar"},
	MIMETypes:        []string{"application/x-tar"},
	EnabledByDefault: true,
}

type tarAdapter struct{}

func (tarAdapter) Meta() *Meta { return tarMeta }

func (tarAdapter) Adapt(src *Source, _ *Match) (Iter, error) {
	return &tarIter{src: src, tr: tar.NewReader(src.Reader)}, nil
}

// tarIter yields one source per regular file entry. tar.Reader skips
// any unread remainder of the previous entry on Next, so sealed or
// partially read children do not desynchronize the stream.
type tarIter struct {
	src *Source
	tr  *tar.Reader
}

func (t *tarIter) Next(ctx context.Context) (*Source, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := t.tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar %s: %w", t.src.Path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := path.Clean(hdr.Name)
		t.src.Config.log().Debug("tar entry",
			"archive", t.src.Path,
			"entry", name,
			"size", hdr.Size,
		)
		return t.src.Child(name, io.Reader(t.tr)), nil
	}
}
