// Package cache defines the storage interface for preprocessed decode
// results.
//
// Entries are compressed decode outputs stored under (partition, key).
// Partitions namespace entries by adapter name and version, so bumping
// an adapter's version orphans its old entries instead of serving
// them. Keys are opaque byte strings derived by the pipeline; stores
// never interpret them. Entries are never explicitly deleted —
// invalidation happens entirely through key and partition changes.
package cache

// Store persists compressed decode results.
//
// Implementations must support concurrent readers and writers across
// distinct (partition, key) pairs; a single pair is only ever owned by
// one execution at a time.
type Store interface {
	// Get returns the blob stored under (partition, key).
	// ok is false when no entry exists.
	Get(partition string, key []byte) (blob []byte, ok bool, err error)

	// Set stores blob under (partition, key), replacing any existing
	// entry. The blob must be fully readable via Get once Set returns.
	Set(partition string, key, blob []byte) error

	// Close releases the store.
	Close() error
}
