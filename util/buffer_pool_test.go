package util

import (
	"testing"
)

func TestSlicePool(t *testing.T) {
	pool := NewSlicePool[uint32]()

	// Test basic get and put
	s := pool.Get(1024)
	if len(s) != 1024 {
		t.Errorf("slice length incorrect: got %d", len(s))
	}

	// Modify slice
	s[0] = 42

	// Return to pool
	pool.Put(s)

	// Get again - should be cleared
	s2 := pool.Get(1024)
	if s2[0] != 0 {
		t.Errorf("slice not cleared after return to pool: got %d", s2[0])
	}
	pool.Put(s2)
}

func TestSlicePoolZeroLength(t *testing.T) {
	pool := NewSlicePool[uint8]()
	s := pool.Get(0)
	if len(s) != 0 {
		t.Errorf("expected empty slice")
	}
	pool.Put(s)
}

func TestSlicePoolMetrics(t *testing.T) {
	pool := NewSlicePool[uint8]()
	for i := 0; i < 5; i++ {
		pool.Put(pool.Get(64))
	}
	hits, misses := pool.GetMetrics()
	if hits+misses != 5 {
		t.Errorf("expected 5 gets to be recorded, got hits=%d misses=%d", hits, misses)
	}
	if misses < 1 {
		t.Errorf("first get must be a miss")
	}
}
