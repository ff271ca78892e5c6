package hashing

import (
	"hash/maphash"
	"math/rand/v2"
)

// golden ratio increment, as used by splitmix64
const pcgStream = 0x9e3779b97f4a7c15

// random is the default Strategy: the element's 64-bit hash code seeds a PCG
// generator and every index is the next draw from it.
type random[T comparable] struct {
	seed maphash.Seed
}

// NewRandom returns the default Strategy for comparable element types.
//
// Hash codes come from maphash.Comparable under a seed chosen here, so two
// strategies built separately disagree on indices while one strategy is stable
// for the whole process. A nil pointer or interface is hashed like any other
// value. An interface element holding a non-comparable dynamic value panics,
// exactly as it would as a map key.
func NewRandom[T comparable]() Strategy[T] {
	return random[T]{seed: maphash.MakeSeed()}
}

func (r random[T]) Produce(element T, bitSize uint64) Sequence {
	h := maphash.Comparable(r.seed, element)
	// both PCG state words derive from the full hash code
	src := rand.NewPCG(h, splitmix(h^pcgStream))
	return &randomSequence{rng: rand.New(src), bitSize: bitSize}
}

type randomSequence struct {
	rng     *rand.Rand
	bitSize uint64
}

func (s *randomSequence) Next() uint64 {
	return s.rng.Uint64N(s.bitSize)
}

func splitmix(x uint64) uint64 {
	x += pcgStream
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
