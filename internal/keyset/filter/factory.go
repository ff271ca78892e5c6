// Package filter builds the Bloom filters used by the keyset repository.
package filter

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/haukened/bloomset/internal/bloom"
	"github.com/haukened/bloomset/internal/bloom/hashing"
	"github.com/haukened/bloomset/internal/keyset"
)

// Strategy names accepted by NewFactory.
const (
	StrategyRandom    = "random"
	StrategyMurmur    = "murmur"
	StrategySipHash   = "siphash"
	StrategyLocations = "locations"
)

// ErrUnknownStrategy is returned for a strategy name not in Strategies.
var ErrUnknownStrategy = errors.New("filter: unknown hashing strategy")

// Strategies lists the accepted strategy names.
func Strategies() []string {
	return []string{StrategyRandom, StrategyMurmur, StrategySipHash, StrategyLocations}
}

// Options configures a factory.
type Options struct {
	// FalsePositiveRate sizes the bit array; out-of-range values mean 1%.
	FalsePositiveRate float64
	// NumberOfHashes overrides the derived k when non-zero.
	NumberOfHashes int
	// Strategy is one of Strategies; empty means StrategyRandom.
	Strategy string
}

type factory struct {
	opts     Options
	strategy func() hashing.Strategy[string]
}

// NewFactory returns a FilterFactory producing lock-wrapped filters.
func NewFactory(opts Options) (keyset.FilterFactory, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyRandom
	}
	s, err := strategyFor(opts.Strategy)
	if err != nil {
		return nil, err
	}
	return factory{opts: opts, strategy: s}, nil
}

func strategyFor(name string) (func() hashing.Strategy[string], error) {
	switch name {
	case StrategyRandom:
		return hashing.NewRandom[string], nil
	case StrategyMurmur:
		return func() hashing.Strategy[string] { return hashing.NewMurmur(hashing.String[string]) }, nil
	case StrategySipHash:
		// fresh keys per filter; a filter's indices only need to agree with itself
		return func() hashing.Strategy[string] {
			return hashing.NewSipHash(rand.Uint64(), rand.Uint64(), hashing.String[string])
		}, nil
	case StrategyLocations:
		return func() hashing.Strategy[string] { return hashing.NewLocations(hashing.String[string]) }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// New builds an empty filter sized for n keys at the configured rate.
func (f factory) New(n uint64) (keyset.Filter, error) {
	m, _ := bloom.EstimateParameters(n, f.opts.FalsePositiveRate)
	bf, err := bloom.NewWithOptions(bloom.Options[string]{
		BitSize:        m,
		SetSize:        int(max(n, 1)),
		NumberOfHashes: f.opts.NumberOfHashes,
		Strategy:       f.strategy(),
	})
	if err != nil {
		return nil, err
	}
	return bloom.NewLocked(bf), nil
}
