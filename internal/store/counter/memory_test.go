package counter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CounterStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CounterStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCounterStoreSuite(t *testing.T) {
	suite.Run(t, new(CounterStoreSuite))
}

func (s *CounterStoreSuite) TestLazyCreationAndIncrement() {
	v, err := s.store.IncrementAndGet(s.ctx, "teamId_MNR")
	s.Require().NoError(err)
	s.Equal(int64(1), v, "first allocation creates the counter at 1")

	v, err = s.store.IncrementAndGet(s.ctx, "teamId_MNR")
	s.Require().NoError(err)
	s.Equal(int64(2), v)

	v, err = s.store.IncrementAndGet(s.ctx, "teamId_LFW")
	s.Require().NoError(err)
	s.Equal(int64(1), v, "sequences are independent")
}

// TestConcurrentIncrements verifies no value is ever issued twice under
// concurrent allocation.
func (s *CounterStoreSuite) TestConcurrentIncrements() {
	const goroutines = 100

	var wg sync.WaitGroup
	values := make(chan int64, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.store.IncrementAndGet(s.ctx, "teamId_MNR")
			s.NoError(err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool, goroutines)
	for v := range values {
		s.False(seen[v], "value %d issued twice", v)
		seen[v] = true
	}
	s.Len(seen, goroutines)
	s.Equal(int64(goroutines), s.store.Peek("teamId_MNR"))
}
