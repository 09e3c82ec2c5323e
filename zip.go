package peel

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

var zipMeta = &Meta{
	Name:             "zip",
	Version:          1,
	Description:      "Reads zip archives and recurses into each entry",
	Recurses:         true,
	Extensions:       []string{"zip"},
	MIMETypes:        []string{"application/zip"},
	EnabledByDefault: true,
}

type zipAdapter struct{}

func (zipAdapter) Meta() *Meta { return zipMeta }

func (zipAdapter) Adapt(src *Source, _ *Match) (Iter, error) {
	// Zip needs the central directory at the end of the stream, so one
	// nesting level is materialized before entries can be read.
	ra, size, cleanup, err := materialize(src.Reader)
	if err != nil {
		return nil, fmt.Errorf("buffering zip %s: %w", src.Path, err)
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("opening zip %s: %w", src.Path, err)
	}
	return &zipIter{src: src, zr: zr, cleanup: cleanup}, nil
}

type zipIter struct {
	src     *Source
	zr      *zip.Reader
	i       int
	cleanup func()
	closed  bool
}

func (z *zipIter) Next(ctx context.Context) (*Source, error) {
	for z.i < len(z.zr.File) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := z.zr.File[z.i]
		z.i++
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		z.src.Config.log().Debug("zip entry",
			"archive", z.src.Path,
			"entry", f.Name,
			"size", f.UncompressedSize64,
			"packed", f.CompressedSize64,
		)
		return z.src.Child(f.Name, rc), nil
	}
	z.Close()
	return nil, io.EOF
}

func (z *zipIter) Close() error {
	if !z.closed {
		z.closed = true
		z.cleanup()
	}
	return nil
}
