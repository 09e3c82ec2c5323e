package peel

import (
	"compress/bzip2"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// codec is one streaming decompression format.
type codec struct {
	ext   string
	mimes []string
	open  func(io.Reader) (io.Reader, error)
}

var codecs = []codec{
	{
		ext:   "gz",
		mimes: []string{"application/gzip", "application/x-gzip"},
		open:  func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
	},
	{
		ext:   "bz2",
		mimes: []string{"application/x-bzip2", "application/x-bzip"},
		open:  func(r io.Reader) (io.Reader, error) { return bzip2.NewReader(r), nil },
	},
	{
		ext:   "xz",
		mimes: []string{"application/x-xz"},
		open:  func(r io.Reader) (io.Reader, error) { return xz.NewReader(r) },
	},
	{
		ext:   "zst",
		mimes: []string{"application/zstd"},
		open: func(r io.Reader) (io.Reader, error) {
			dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
	},
	{
		ext:   "lz4",
		mimes: []string{"application/x-lz4"},
		open:  func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil },
	},
}

// shorthands maps combined extensions to the extension of the
// decompressed stream, e.g. "x.tgz" decodes to "x.tar".
var shorthands = map[string]string{
	"tgz":  "gz",
	"tbz":  "bz2",
	"tbz2": "bz2",
	"txz":  "xz",
}

var decompressMeta = func() *Meta {
	exts := make([]string, 0, len(codecs)+len(shorthands))
	var mimes []string
	for _, c := range codecs {
		exts = append(exts, c.ext)
		mimes = append(mimes, c.mimes...)
	}
	for s := range shorthands {
		exts = append(exts, s)
	}
	return &Meta{
		Name:             "decompress",
		Version:          1,
		Description:      "Decompresses gz, bz2, xz, zst, and lz4 streams; the result is dispatched again, so file.tar.gz unpacks fully",
		Recurses:         true,
		Extensions:       exts,
		MIMETypes:        mimes,
		EnabledByDefault: true,
	}
}()

// decompressAdapter is terminal in format but recursive in dispatch:
// it yields a single decoded source whose stripped name sends it back
// through matching.
type decompressAdapter struct{}

func (decompressAdapter) Meta() *Meta { return decompressMeta }

func (decompressAdapter) Adapt(src *Source, reason *Match) (Iter, error) {
	c, err := codecFor(src.Path, reason)
	if err != nil {
		return nil, err
	}
	dec, err := c.open(src.Reader)
	if err != nil {
		return nil, fmt.Errorf("opening %s stream %s: %w", c.ext, src.Path, err)
	}
	return One(src.Derive(strippedName(src.Path), dec)), nil
}

// codecFor resolves the codec from the match reason, falling back to
// the path extension for synthetic reasons.
func codecFor(p string, reason *Match) (*codec, error) {
	if reason != nil && reason.Kind == MatchMIME {
		for i := range codecs {
			for _, m := range codecs[i].mimes {
				if m == reason.Value {
					return &codecs[i], nil
				}
			}
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if s, ok := shorthands[ext]; ok {
		ext = s
	}
	for i := range codecs {
		if codecs[i].ext == ext {
			return &codecs[i], nil
		}
	}
	return nil, fmt.Errorf("peel: no decompressor for %q", p)
}

// strippedName maps the compressed name to the name of the decoded
// stream: "x.tar.gz" becomes "x.tar", "x.tgz" becomes "x.tar".
func strippedName(p string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	base := strings.TrimSuffix(p, path.Ext(p))
	if _, ok := shorthands[ext]; ok {
		return base + ".tar"
	}
	return base
}
