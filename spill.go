package peel

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// spillThreshold is the point past which a materialized stream moves
// from memory to a temporary file.
const spillThreshold = 32 << 20

// materialize drains r so formats that need random access (zip reads
// its central directory from the end) can seek. Streams up to
// spillThreshold stay in memory; larger ones spill to a temp file that
// cleanup removes.
func materialize(r io.Reader) (io.ReaderAt, int64, func(), error) {
	return materializeN(r, spillThreshold)
}

func materializeN(r io.Reader, threshold int64) (ra io.ReaderAt, size int64, cleanup func(), err error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, threshold+1)
	if err == io.EOF {
		return bytes.NewReader(buf.Bytes()), n, func() {}, nil
	}
	if err != nil {
		return nil, 0, nil, err
	}

	f, err := os.CreateTemp("", "peel-spill-*")
	if err != nil {
		return nil, 0, nil, err
	}
	cleanup = func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		cleanup()
		return nil, 0, nil, err
	}
	rest, err := io.Copy(f, r)
	if err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("spilling stream to disk: %w", err)
	}
	return f, n + rest, cleanup, nil
}
