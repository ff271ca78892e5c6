package keyset

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/haukened/bloomset/internal/common/clock"
	"github.com/haukened/bloomset/internal/common/log"
)

// ErrMissingDependency is returned by NewRepository when a required
// collaborator is nil.
var ErrMissingDependency = errors.New("keyset: missing dependency")

// ErrEmptyKey is returned by Add for a key that is blank after trimming.
var ErrEmptyKey = errors.New("keyset: empty key")

// Options wires a repository. Clock and Logger are optional.
type Options struct {
	Store   Store
	Cache   Cache
	Factory FilterFactory
	Clock   clock.Clock
	Logger  log.Logger
}

// repository applies a filter → cache → store pipeline on reads and swaps in
// a freshly built filter on Update.
type repository struct {
	// writeMu serializes Add and Update so no Add lands between a rebuild
	// and the filter swap
	writeMu sync.Mutex
	mu      sync.RWMutex
	store   Store
	cache   Cache
	filter  Filter
	factory FilterFactory
	clock   clock.Clock
	logger  log.Logger
	// gen advances on every write so an in-flight store read cannot cache a stale answer
	gen uint64

	filterNegatives atomic.Uint64
	filterPositives atomic.Uint64
	falsePositives  atomic.Uint64
	storeErrors     atomic.Uint64
}

// NewRepository constructs a Repository. Until the first Update no filter is
// loaded and every query goes to the cache and store.
func NewRepository(opts Options) (Repository, error) {
	if opts.Store == nil || opts.Cache == nil || opts.Factory == nil {
		return nil, fmt.Errorf("%w: store, cache and factory are required", ErrMissingDependency)
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &repository{
		store:   opts.Store,
		cache:   opts.Cache,
		factory: opts.Factory,
		clock:   opts.Clock,
		logger:  opts.Logger.With(map[string]any{"component": "keyset"}),
	}, nil
}

func canonicalKey(key string) string {
	return strings.TrimSpace(key)
}

// Has reports membership for key.
// Policy: on store errors the key is reported absent and the answer is not cached.
func (r *repository) Has(key string) Decision {
	k := canonicalKey(key)

	r.mu.RLock()
	f, gen := r.filter, r.gen
	r.mu.RUnlock()

	// 1) checkFilter: definite negatives stop here
	if f != nil {
		if !f.Contains(k) {
			r.filterNegatives.Add(1)
			return Decision{Present: false, Source: SourceFilter}
		}
		r.filterPositives.Add(1)
	}

	// 2) checkCache
	if present, ok := r.checkCache(k); ok {
		if !present && f != nil {
			r.falsePositives.Add(1)
		}
		return Decision{Present: present, Source: SourceCache}
	}

	// 3) checkStore
	present, err := r.store.Has(k)
	if err != nil {
		r.storeErrors.Add(1)
		r.logger.Warn(map[string]any{"key": k, "error": err.Error()}, "store lookup failed")
		return Decision{Present: false, Source: SourceStore}
	}
	if !present && f != nil {
		r.falsePositives.Add(1)
	}

	// 4) updateCache
	r.updateCache(k, present, gen)
	return Decision{Present: present, Source: SourceStore}
}

// Add writes key to the store, then sets its bits in the live filter.
func (r *repository) Add(key string) error {
	k := canonicalKey(key)
	if k == "" {
		return ErrEmptyKey
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.store.Put(k); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	r.mu.Lock()
	if r.filter != nil {
		r.filter.Add(k)
	}
	r.cache.Put(k, true)
	r.gen++
	r.mu.Unlock()
	return nil
}

// Update performs an atomic snapshot update across store, filter and cache.
func (r *repository) Update(keys []string) error {
	unique := dedupe(keys)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	version := r.store.Stats().Version + 1
	now := r.clock.Now()

	// 1) Rebuild the persistent store first.
	if err := r.store.RebuildAll(unique, version, now.Unix()); err != nil {
		return fmt.Errorf("failed to rebuild store: %w", err)
	}

	// 2) Build a fresh filter sized for the dataset.
	f, err := r.factory.New(uint64(len(unique)))
	if err != nil {
		return fmt.Errorf("failed to build filter: %w", err)
	}
	for _, k := range unique {
		f.Add(k)
	}

	// 3) Swap filter and purge cache under lock.
	r.mu.Lock()
	r.filter = f
	r.cache.Purge()
	r.gen++
	r.mu.Unlock()

	p := f.Parameters()
	r.logger.Info(map[string]any{
		"keys":         len(unique),
		"version":      version,
		"bits":         p.BitSize,
		"hashes":       p.NumberOfHashes,
		"estimated_fp": f.FalsePositiveProbability(),
	}, "keyset updated")
	return nil
}

// Stats returns counters from all three layers.
func (r *repository) Stats() Stats {
	hits, misses, evictions := r.cache.Stats()
	s := Stats{
		FilterNegatives: r.filterNegatives.Load(),
		FilterPositives: r.filterPositives.Load(),
		FalsePositives:  r.falsePositives.Load(),
		StoreErrors:     r.storeErrors.Load(),
		CacheHits:       hits,
		CacheMisses:     misses,
		CacheEvictions:  evictions,
		Store:           r.store.Stats(),
	}
	r.mu.RLock()
	f := r.filter
	r.mu.RUnlock()
	if f != nil {
		s.Filter = f.Parameters()
		s.EstimatedFalsePositiveRate = f.FalsePositiveProbability()
		s.FillRatio = f.FillRatio()
	}
	return s
}

func (r *repository) checkCache(k string) (bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Get(k)
}

// updateCache writes the answer unless a write happened since it was read.
func (r *repository) updateCache(k string, present bool, gen uint64) {
	r.mu.Lock()
	if r.gen == gen {
		r.cache.Put(k, present)
	}
	r.mu.Unlock()
}

// dedupe canonicalizes keys, drops blanks and keeps first-seen order.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		k := canonicalKey(key)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
