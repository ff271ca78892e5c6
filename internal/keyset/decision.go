package keyset

// Source names the layer that produced a Decision.
type Source uint8

const (
	// SourceFilter means the Bloom filter ruled the key out.
	SourceFilter Source = iota
	// SourceCache means a memoized store answer was used.
	SourceCache
	// SourceStore means the authoritative store was consulted.
	SourceStore
)

func (s Source) String() string {
	switch s {
	case SourceFilter:
		return "filter"
	case SourceCache:
		return "cache"
	case SourceStore:
		return "store"
	default:
		return "unknown"
	}
}

// Decision is the answer for one key.
type Decision struct {
	Present bool
	Source  Source
}
