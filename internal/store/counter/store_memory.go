package counter

import (
	"context"
	"sync"
)

// InMemory implements the counter store with a mutex-guarded map. The lock
// makes increment-and-get indivisible, mirroring what the postgres
// implementation gets from a single upsert statement.
type InMemory struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewInMemory creates an empty in-memory counter store.
func NewInMemory() *InMemory {
	return &InMemory{values: make(map[string]int64)}
}

// IncrementAndGet atomically increments the named counter, creating it on
// first use, and returns the new value.
func (s *InMemory) IncrementAndGet(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name]++
	return s.values[name], nil
}

// Peek returns the current value without incrementing. Test helper.
func (s *InMemory) Peek(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name]
}
