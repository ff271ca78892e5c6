// Package keyset answers exact membership for a set of string keys, using a
// Bloom filter to skip the authoritative store for keys that are definitely
// absent.
package keyset

import "github.com/haukened/bloomset/internal/bloom"

// Filter is what the repository needs from a Bloom filter. Add may run
// concurrently with the query methods.
type Filter interface {
	Add(key string)
	Contains(key string) bool
	FalsePositiveProbability() float64
	FillRatio() float64
	Parameters() bloom.Parameters
}

// FilterFactory builds a filter sized for n keys.
type FilterFactory interface {
	New(n uint64) (Filter, error)
}

// Cache memoizes store answers by key.
type Cache interface {
	Get(key string) (present bool, ok bool)
	Put(key string, present bool)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// StoreStats captures counts and snapshot metadata of the store.
type StoreStats struct {
	Keys        uint64
	Version     uint64
	UpdatedUnix int64 // seconds since epoch
}

// Store is the authoritative key set.
type Store interface {
	Has(key string) (bool, error)
	Put(key string) error
	// RebuildAll replaces the whole key set and its metadata in one step.
	RebuildAll(keys []string, version uint64, updatedUnix int64) error
	Stats() StoreStats
	Close() error
}

// Repository composes filter, cache and store.
type Repository interface {
	// Has reports whether key is in the set.
	Has(key string) Decision
	// Add inserts a single key without rebuilding.
	Add(key string) error
	// Update replaces the set with keys, rebuilding store and filter.
	Update(keys []string) error
	Stats() Stats
}
