// Package peel turns arbitrary input files — archives, compressed
// streams — into plain decoded byte streams for a downstream text-search
// tool. Nested containers are unpacked transparently (a zip inside a
// tar.gz keeps unfolding until only plain content remains) and expensive
// decode results are cached, so repeated searches over unchanged files
// skip the work.
//
// The pipeline is pull-driven: nothing decodes ahead of what the caller
// reads, and peak memory scales with nesting depth rather than total
// archive size. Decoded output of a top-level file is cached compressed
// under a key derived from its path, modification time, and the versions
// of the adapters that could have touched it, so any change to the file
// or to an adapter invalidates exactly the affected entries.
package peel

import "errors"

// Sentinel errors.
var (
	// ErrNoAdapter is returned when no adapter matches a top-level file
	// and passthrough is disallowed. Upstream filtering should have
	// excluded such files before they reach the pipeline.
	ErrNoAdapter = errors.New("peel: no adapter matched and passthrough is disabled")

	// ErrEmptyFilename is returned when a source's path hint has no
	// usable file name to match against.
	ErrEmptyFilename = errors.New("peel: empty filename")
)
