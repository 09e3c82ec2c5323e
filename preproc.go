package peel

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Preprocess decodes one top-level source into a single plain byte
// stream. Matched containers are expanded recursively; unmatched
// sources pass through unchanged. The returned stream must be closed;
// closing before EOF cancels all pending decode work and prevents any
// cache commit.
func Preprocess(ctx context.Context, src *Source) (io.ReadCloser, error) {
	src.Config.log().Debug("preprocessing", "path", src.Path, "depth", src.Depth)
	d, err := dispatchSource(src)
	if err != nil {
		return nil, err
	}
	if d.adapter == nil {
		return io.NopCloser(d.src.Reader), nil
	}
	out, err := runCached(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("preprocessing %s: %w", src.Path, err)
	}
	return out, nil
}

// PreprocessFile opens path and preprocesses it with postprocessing
// enabled, so content inside archives is attributed to its entry.
// Closing the returned stream also closes the file.
func PreprocessFile(ctx context.Context, path string, cfg *Config) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src := FileSource(path, f, cfg)
	src.Postprocess = true
	out, err := Preprocess(ctx, src)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileStream{ReadCloser: out, f: f}, nil
}

type fileStream struct {
	io.ReadCloser
	f *os.File
}

func (s *fileStream) Close() error {
	err := s.ReadCloser.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
