// Package lru memoizes store answers for the keyset repository.
package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/bloomset/internal/keyset"
)

// membershipCache is an LRU-backed keyset.Cache with hit, miss and eviction counters.
type membershipCache struct {
	lru       *lru.Cache[string, bool]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache always misses.
type disabledCache struct{}

// New creates a cache holding up to size answers. If size <= 0 a disabled
// cache is returned.
func New(size int) (keyset.Cache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	c := &membershipCache{}
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(_ string, _ bool) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = cache
	return c, nil
}

func (c *membershipCache) Get(key string) (bool, bool) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v, true
	}
	c.misses.Add(1)
	return false, false
}

func (c *membershipCache) Put(key string, present bool) { c.lru.Add(key, present) }

func (c *membershipCache) Len() int { return c.lru.Len() }

func (c *membershipCache) Purge() { c.lru.Purge() }

func (c *membershipCache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (d *disabledCache) Get(string) (bool, bool) { return false, false }

func (d *disabledCache) Put(string, bool) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ keyset.Cache = (*membershipCache)(nil)
var _ keyset.Cache = (*disabledCache)(nil)
