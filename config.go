package peel

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hollowise/peel/cache"
)

// Default pipeline limits.
const (
	// DefaultMaxDepth is the default maximum archive recursion depth.
	DefaultMaxDepth = 4

	// DefaultCompressionLevel is the default zstd level for cache entries.
	DefaultCompressionLevel = 12

	// DefaultMaxBlobLen is the default maximum uncompressed size of a
	// decode result that will still be cached.
	DefaultMaxBlobLen = 2_000_000
)

// CacheConfig controls the decode-result cache.
type CacheConfig struct {
	// Disabled turns caching off entirely.
	Disabled bool

	// Dir is the directory for the default disk-backed store. Empty
	// means a "peel" directory under the user cache dir.
	Dir string

	// Store overrides Dir with an explicit storage backend.
	Store cache.Store

	// CompressionLevel is the zstd level applied to cached blobs.
	CompressionLevel int

	// MaxBlobLen caps the uncompressed size of a cacheable decode
	// result. Results that grow past it are delivered but not stored.
	MaxBlobLen int64
}

// Config is the shared pipeline configuration. One snapshot is created
// per top-level execution and passed by pointer through every nested
// work unit; it must not be mutated after the pipeline starts.
type Config struct {
	// Adapters filters the built-in adapter set by name. Empty enables
	// every adapter marked EnabledByDefault. Entries prefixed with "-"
	// subtract from that default set; bare names select exactly the
	// named set. Mixing both forms is an error.
	Adapters []string

	// Custom holds caller-supplied adapters. They are tried before the
	// built-ins, in the order given.
	Custom []Adapter

	// Sniff enables mimetype detection from a bounded content prefix in
	// addition to extension matching. It also permits passthrough for
	// top-level files no adapter handles.
	Sniff bool

	// MaxDepth bounds nested-container expansion. Branches that would
	// exceed it are sealed with a single diagnostic leaf.
	MaxDepth int

	// Cache configures the decode-result cache.
	Cache CacheConfig

	// Logger receives diagnostic events (adapter selection, cache
	// activity). Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the default adapter set, depth
// limit, and cache settings.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth: DefaultMaxDepth,
		Cache: CacheConfig{
			CompressionLevel: DefaultCompressionLevel,
			MaxBlobLen:       DefaultMaxBlobLen,
		},
	}
}

func (c *Config) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// cacheDir resolves the directory for the default disk store.
func (c *Config) cacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "peel"), nil
}
