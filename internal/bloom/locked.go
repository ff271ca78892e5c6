package bloom

import "sync"

// Locked wraps a Filter with a mutex for writes.
// Queries share a read lock and may run concurrently; Add is serialized.
type Locked[T comparable] struct {
	mu sync.RWMutex
	f  *Filter[T]
}

// NewLocked wraps f. The caller must stop using f directly.
func NewLocked[T comparable](f *Filter[T]) *Locked[T] {
	return &Locked[T]{f: f}
}

func (l *Locked[T]) Add(item T) {
	l.mu.Lock()
	l.f.Add(item)
	l.mu.Unlock()
}

func (l *Locked[T]) Contains(item T) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.Contains(item)
}

func (l *Locked[T]) ContainsAny(items ...T) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.ContainsAny(items...)
}

func (l *Locked[T]) ContainsAll(items ...T) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.ContainsAll(items...)
}

func (l *Locked[T]) FalsePositiveProbability() float64 {
	return l.f.FalsePositiveProbability()
}

func (l *Locked[T]) FillRatio() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.FillRatio()
}

func (l *Locked[T]) Parameters() Parameters { return l.f.Parameters() }
