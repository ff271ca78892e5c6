package hashing

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

const initialLocations = 8

type locationsStrategy[T any] struct {
	encode Encoder[T]
}

// NewLocations returns a Strategy using the index derivation of
// github.com/bits-and-blooms/bloom/v3, so a filter built with it sets the same
// bits as a bits-and-blooms filter of equal size.
func NewLocations[T any](encode Encoder[T]) Strategy[T] {
	return locationsStrategy[T]{encode: encode}
}

func (s locationsStrategy[T]) Produce(element T, bitSize uint64) Sequence {
	return &locationsSequence{data: s.encode(element), bitSize: bitSize}
}

// locationsSequence fetches locations in doubling batches. Locations(data, k)
// is a prefix of Locations(data, 2k), so refetching never reorders indices.
type locationsSequence struct {
	data    []byte
	locs    []uint64
	i       int
	bitSize uint64
}

func (s *locationsSequence) Next() uint64 {
	if s.i == len(s.locs) {
		n := max(initialLocations, 2*len(s.locs))
		s.locs = bitsbloom.Locations(s.data, uint(n))
	}
	j := s.locs[s.i] % s.bitSize
	s.i++
	return j
}
