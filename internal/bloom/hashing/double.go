package hashing

import (
	"github.com/dchest/siphash"
	"github.com/spaolacci/murmur3"
)

// doubleSequence derives indices as (h1 + i*h2) mod m from one 128-bit digest.
type doubleSequence struct {
	h1, h2  uint64
	i       uint64
	bitSize uint64
}

func newDoubleSequence(h1, h2, bitSize uint64) *doubleSequence {
	if h2 == 0 {
		h2 = 1
	}
	return &doubleSequence{h1: h1, h2: h2, bitSize: bitSize}
}

func (s *doubleSequence) Next() uint64 {
	j := (s.h1 + s.i*s.h2) % s.bitSize
	s.i++
	return j
}

type murmurStrategy[T any] struct {
	encode Encoder[T]
}

// NewMurmur returns a double-hashing Strategy over a murmur3 128-bit digest.
// Indices are stable across processes for the same encoded bytes.
func NewMurmur[T any](encode Encoder[T]) Strategy[T] {
	return murmurStrategy[T]{encode: encode}
}

func (s murmurStrategy[T]) Produce(element T, bitSize uint64) Sequence {
	h1, h2 := murmur3.Sum128(s.encode(element))
	return newDoubleSequence(h1, h2, bitSize)
}

type sipStrategy[T any] struct {
	k0, k1 uint64
	encode Encoder[T]
}

// NewSipHash returns a double-hashing Strategy over a keyed SipHash-2-4
// 128-bit digest. Filters built with different keys set unrelated bits.
func NewSipHash[T any](k0, k1 uint64, encode Encoder[T]) Strategy[T] {
	return sipStrategy[T]{k0: k0, k1: k1, encode: encode}
}

func (s sipStrategy[T]) Produce(element T, bitSize uint64) Sequence {
	h1, h2 := siphash.Hash128(s.k0, s.k1, s.encode(element))
	return newDoubleSequence(h1, h2, bitSize)
}
