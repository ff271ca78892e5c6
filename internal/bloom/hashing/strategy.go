// Package hashing maps filter elements to bit indices.
//
// A Strategy turns one element into a Sequence of indices in [0, bitSize).
// The filter draws exactly k indices from a fresh Sequence on every Add and
// Contains call, so a Strategy must be deterministic: the same element always
// yields the same indices for the life of the Strategy value.
package hashing

// Sequence yields bit indices for a single element. It is created per call
// and must not be shared between goroutines or reused across calls.
type Sequence interface {
	// Next returns the next index in [0, bitSize).
	Next() uint64
}

// Strategy produces index sequences for elements of type T.
// Implementations are stateless after construction and safe for concurrent use.
type Strategy[T any] interface {
	Produce(element T, bitSize uint64) Sequence
}

// Encoder converts an element to the bytes fed into a byte-oriented hash.
type Encoder[T any] func(element T) []byte

// String encodes string-like elements.
func String[T ~string](element T) []byte { return []byte(element) }

// Bytes encodes byte-slice-like elements. The slice is used as is.
func Bytes[T ~[]byte](element T) []byte { return []byte(element) }
