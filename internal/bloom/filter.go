// Package bloom implements a static-membership Bloom filter.
//
// A Filter never reports a false negative: after Add(x), Contains(x) is true.
// It may report false positives at a rate estimated by FalsePositiveProbability.
// Filters are not safe for concurrent mutation; wrap one in Locked or supply
// external synchronization.
package bloom

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/haukened/bloomset/internal/bloom/hashing"
)

// Filter is a Bloom filter over elements of type T.
type Filter[T comparable] struct {
	bits     *bitset.BitSet
	m        uint64
	n        int
	k        int
	strategy hashing.Strategy[T]
}

// Options configures NewWithOptions.
type Options[T comparable] struct {
	// BitSize is the number of bits in the filter (m). Must be > 0.
	BitSize int
	// SetSize is the number of elements the filter is sized for (n). Must be > 0.
	SetSize int
	// NumberOfHashes is the number of indices per element (k).
	// Zero derives the optimal value from BitSize and SetSize.
	NumberOfHashes int
	// Strategy maps elements to indices. Nil selects hashing.NewRandom.
	Strategy hashing.Strategy[T]
}

// New returns a filter of bitSize bits sized for setSize elements, using the
// optimal hash count and the default hashing strategy.
func New[T comparable](bitSize, setSize int) (*Filter[T], error) {
	return NewWithOptions(Options[T]{BitSize: bitSize, SetSize: setSize})
}

// NewWithOptions returns a filter configured by opts. It fails with
// ErrInvalidParameters when a size is not positive or NumberOfHashes is negative.
func NewWithOptions[T comparable](opts Options[T]) (*Filter[T], error) {
	if err := checkSizing(sizing{
		BitSize:        opts.BitSize,
		SetSize:        opts.SetSize,
		NumberOfHashes: opts.NumberOfHashes,
	}); err != nil {
		return nil, err
	}
	k := opts.NumberOfHashes
	if k == 0 {
		k = OptimalNumberOfHashes(opts.BitSize, opts.SetSize)
	}
	s := opts.Strategy
	if s == nil {
		s = hashing.NewRandom[T]()
	}
	return &Filter[T]{
		bits:     bitset.New(uint(opts.BitSize)),
		m:        uint64(opts.BitSize),
		n:        opts.SetSize,
		k:        k,
		strategy: s,
	}, nil
}

// Add inserts item. Adding an item twice leaves the filter unchanged.
func (f *Filter[T]) Add(item T) {
	seq := f.strategy.Produce(item, f.m)
	for i := 0; i < f.k; i++ {
		f.bits.Set(uint(seq.Next()))
	}
}

// Contains reports whether item is possibly in the set. A false result is
// definitive.
func (f *Filter[T]) Contains(item T) bool {
	seq := f.strategy.Produce(item, f.m)
	for i := 0; i < f.k; i++ {
		if !f.bits.Test(uint(seq.Next())) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether at least one of items is possibly in the set.
// It is false for no items.
func (f *Filter[T]) ContainsAny(items ...T) bool {
	for _, item := range items {
		if f.Contains(item) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every one of items is possibly in the set.
// It is true for no items.
func (f *Filter[T]) ContainsAll(items ...T) bool {
	for _, item := range items {
		if !f.Contains(item) {
			return false
		}
	}
	return true
}

// FalsePositiveProbability estimates the false-positive rate from the
// configured m, n and k. It does not look at the bits actually set.
func (f *Filter[T]) FalsePositiveProbability() float64 {
	return FalsePositiveProbability(int(f.m), f.n, f.k)
}

// FillRatio returns the fraction of bits currently set.
func (f *Filter[T]) FillRatio() float64 {
	return float64(f.bits.Count()) / float64(f.m)
}

// BitSize returns m, the number of bits in the array.
func (f *Filter[T]) BitSize() int { return int(f.m) }

// SetSize returns n, the expected number of elements.
func (f *Filter[T]) SetSize() int { return f.n }

// NumberOfHashes returns k, the number of indices set per element.
func (f *Filter[T]) NumberOfHashes() int { return f.k }

// Parameters returns m, n and k together.
func (f *Filter[T]) Parameters() Parameters {
	return Parameters{BitSize: int(f.m), SetSize: f.n, NumberOfHashes: f.k}
}
