package peel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zstd"

	"github.com/hollowise/peel/cache"
	"github.com/hollowise/peel/cache/disk"
)

// runCached executes the full recursive decode of one matched source,
// serving it from the cache when possible. On a hit the stored blob is
// decompressed and streamed; on a miss the recursion engine runs and
// its flattened output is teed to the caller and to a size-bounded
// compressing accumulator that commits only at clean end-of-stream.
func runCached(ctx context.Context, d *dispatch) (io.ReadCloser, error) {
	src, adapter := d.src, d.adapter
	cfg := src.Config
	meta := adapter.Meta()
	cfg.log().Info("chose adapter",
		"path", src.Path,
		"adapter", meta.Name,
		"match", d.match.Kind.String(),
	)

	store := openStore(src)
	if store == nil {
		return runUncached(ctx, d)
	}

	partition := fmt.Sprintf("%s.v%d", meta.Name, meta.Version)
	key, err := buildCacheKey(src, adapter, d.active)
	if err != nil {
		store.Close()
		return nil, err
	}

	blob, ok, err := store.Get(partition, key)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("peel: cache read for %s: %w", src.Path, err)
	}
	if ok {
		cfg.log().Debug("cache hit", "path", src.Path, "partition", partition)
		store.Close()
		dec, err := zstd.NewReader(bytes.NewReader(blob), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("peel: decompressing cache entry for %s: %w", src.Path, err)
		}
		return dec.IOReadCloser(), nil
	}

	cfg.log().Debug("cache miss", "path", src.Path, "partition", partition)
	it, err := Expand(adapter, d.match, src)
	if err != nil {
		store.Close()
		return nil, err
	}
	out := Concat(ctx, it)
	cw, err := newCachingReader(out, store, partition, key, cfg)
	if err != nil {
		// Compressor setup failed; deliver uncached.
		cfg.log().Warn("cache writer unavailable", "path", src.Path, "error", err)
		store.Close()
		return out, nil
	}
	return cw, nil
}

func runUncached(ctx context.Context, d *dispatch) (io.ReadCloser, error) {
	it, err := Expand(d.adapter, d.match, d.src)
	if err != nil {
		return nil, err
	}
	return Concat(ctx, it), nil
}

// openStore opens the configured cache store for one top-level
// execution. Nested and synthetic units are never independently
// cached: the top-level entry already captures the full expansion
// beneath them. Open failures degrade to uncached execution.
func openStore(src *Source) cache.Store {
	cfg := src.Config
	if !src.RealFile || cfg.Cache.Disabled {
		return nil
	}
	if cfg.Cache.Store != nil {
		return nopCloseStore{cfg.Cache.Store}
	}
	dir, err := cfg.cacheDir()
	if err == nil {
		var st cache.Store
		st, err = disk.Open(dir)
		if err == nil {
			return st
		}
	}
	cfg.log().Warn("cache unavailable, decoding without cache", "path", src.Path, "error", err)
	return nil
}

// nopCloseStore shields a caller-owned store from the executor's
// per-execution Close calls.
type nopCloseStore struct {
	cache.Store
}

func (nopCloseStore) Close() error { return nil }

// cachingReader tees a decode stream into a size-bounded zstd
// accumulator. Bytes are forwarded to the caller as produced; the
// compressed result is committed exactly once, at clean end-of-stream.
// Overflow past maxLen or abandonment before EOF drops the accumulator
// without affecting delivery.
type cachingReader struct {
	src       io.ReadCloser
	store     cache.Store
	partition string
	key       []byte
	enc       *zstd.Encoder
	buf       *bytes.Buffer
	maxLen    int64
	size      int64
	dropped   bool
	committed bool
	log       *slog.Logger
}

func newCachingReader(src io.ReadCloser, store cache.Store, partition string, key []byte, cfg *Config) (*cachingReader, error) {
	buf := &bytes.Buffer{}
	enc, err := zstd.NewWriter(buf,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.Cache.CompressionLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}
	return &cachingReader{
		src:       src,
		store:     store,
		partition: partition,
		key:       key,
		enc:       enc,
		buf:       buf,
		maxLen:    cfg.Cache.MaxBlobLen,
		log:       cfg.log(),
	}, nil
}

func (r *cachingReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 && !r.dropped {
		r.size += int64(n)
		if r.maxLen > 0 && r.size > r.maxLen {
			r.log.Debug("decode result exceeds cache size limit, not caching",
				"partition", r.partition, "size", r.size, "limit", r.maxLen)
			r.drop()
		} else if _, werr := r.enc.Write(p[:n]); werr != nil {
			r.log.Warn("cache compression failed, not caching", "partition", r.partition, "error", werr)
			r.drop()
		}
	}
	if err == io.EOF {
		if cerr := r.commit(); cerr != nil {
			return n, cerr
		}
	}
	return n, err
}

// commit finalizes the compressed blob and stores it. A write failure
// is surfaced as an error for this unit, but all output bytes have
// already been delivered by then; delivery and commit are independent.
func (r *cachingReader) commit() error {
	if r.committed || r.dropped {
		return nil
	}
	r.committed = true
	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("peel: cache compression: %w", err)
	}
	if err := r.store.Set(r.partition, r.key, r.buf.Bytes()); err != nil {
		return fmt.Errorf("peel: cache write: %w", err)
	}
	r.log.Debug("cache entry committed",
		"partition", r.partition,
		"uncompressed", r.size,
		"compressed", r.buf.Len(),
	)
	return nil
}

func (r *cachingReader) drop() {
	if !r.dropped {
		r.dropped = true
		_ = r.enc.Close()
		r.buf = nil
	}
}

// Close stops all pending decode work. Closing before EOF counts as
// abandonment: nothing is committed.
func (r *cachingReader) Close() error {
	if !r.committed {
		r.drop()
	}
	err := r.src.Close()
	if cerr := r.store.Close(); err == nil {
		err = cerr
	}
	return err
}
