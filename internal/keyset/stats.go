package keyset

import "github.com/haukened/bloomset/internal/bloom"

// Stats is a best-effort snapshot of repository counters.
type Stats struct {
	FilterNegatives uint64 // queries the filter answered alone
	FilterPositives uint64 // queries the filter passed on
	FalsePositives  uint64 // filter passes answered absent by the store or cache
	StoreErrors     uint64

	CacheHits      uint64
	CacheMisses    uint64
	CacheEvictions uint64

	Store StoreStats

	Filter                     bloom.Parameters
	EstimatedFalsePositiveRate float64
	FillRatio                  float64
}

// ObservedFalsePositiveRate is the share of absent answers that the filter
// let through, per query: a repeat query for a cached false positive counts
// again, the same way a repeat filter negative does. It is 0 before any
// absent answer.
func (s Stats) ObservedFalsePositiveRate() float64 {
	absent := s.FalsePositives + s.FilterNegatives
	if absent == 0 {
		return 0
	}
	return float64(s.FalsePositives) / float64(absent)
}
