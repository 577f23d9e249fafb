package util

import (
	"sync"
	"sync/atomic"
)

// SlicePool provides pooling for fixed length slices to reduce allocations.
// Slices are bucketed by length so a stream buffer sized for one message
// is only handed back to callers asking for the same size.
type SlicePool[T any] struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex

	// Metrics
	hits   atomic.Int64
	misses atomic.Int64
}

func NewSlicePool[T any]() *SlicePool[T] {
	return &SlicePool[T]{pools: make(map[int]*sync.Pool)}
}

// Get retrieves a slice of the given length from the pool or creates a new one
func (p *SlicePool[T]) Get(length int) []T {
	if length == 0 {
		return make([]T, 0)
	}

	// Fast path: read lock
	p.mu.RLock()
	pool, exists := p.pools[length]
	p.mu.RUnlock()

	if exists {
		if s := pool.Get(); s != nil {
			p.hits.Add(1)
			return *(s.(*[]T))
		}
	} else {
		// Slow path: create new pool
		p.mu.Lock()
		// Double-check after acquiring write lock
		if _, exists = p.pools[length]; !exists {
			p.pools[length] = &sync.Pool{}
		}
		p.mu.Unlock()
	}

	p.misses.Add(1)
	return make([]T, length)
}

// Put returns a slice to the pool after clearing it
func (p *SlicePool[T]) Put(s []T) {
	if len(s) == 0 {
		return
	}

	p.mu.RLock()
	pool, exists := p.pools[len(s)]
	p.mu.RUnlock()

	if exists {
		clear(s)
		pool.Put(&s)
	}
}

// GetMetrics returns pool usage statistics
func (p *SlicePool[T]) GetMetrics() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}
