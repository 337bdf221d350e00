package sequence

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roboreg/internal/store/counter"
	dErrors "roboreg/pkg/domain-errors"
)

func TestFormats(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(counter.NewInMemory())

	orgID, err := alloc.NextOrganisationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MN00001", orgID.String())

	contestantID, err := alloc.NextContestantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CN0001", contestantID.String())

	coachID, err := alloc.NextCoachID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CH0001", coachID.String())

	teamID, err := alloc.NextTeamID(ctx, "MNR")
	require.NoError(t, err)
	assert.Equal(t, "TMNR0001", teamID.String())

	// Category sequences are independent
	teamID, err = alloc.NextTeamID(ctx, "LFW")
	require.NoError(t, err)
	assert.Equal(t, "TLFW0001", teamID.String())
}

func TestNextTeamIDRequiresCategory(t *testing.T) {
	alloc := NewAllocator(counter.NewInMemory())
	_, err := alloc.NextTeamID(context.Background(), "")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

// TestConcurrentAllocationsAreUniqueAndDense verifies that N concurrent
// allocations yield N distinct identifiers covering exactly 1..N.
func TestConcurrentAllocationsAreUniqueAndDense(t *testing.T) {
	const goroutines = 64
	ctx := context.Background()
	alloc := NewAllocator(counter.NewInMemory())

	var wg sync.WaitGroup
	ids := make(chan string, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			teamID, err := alloc.NextTeamID(ctx, "MNR")
			assert.NoError(t, err)
			ids <- teamID.String()
		}()
	}
	wg.Wait()
	close(ids)

	var numbers []int
	for teamID := range ids {
		require.Len(t, teamID, len("TMNR0000"))
		require.Equal(t, "TMNR", teamID[:4])
		n, err := strconv.Atoi(teamID[4:])
		require.NoError(t, err)
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	require.Len(t, numbers, goroutines)
	for i, n := range numbers {
		assert.Equal(t, i+1, n, "allocations must be dense and never reused")
	}
}

type failingCounterStore struct{}

func (failingCounterStore) IncrementAndGet(context.Context, string) (int64, error) {
	return 0, errors.New("store down")
}

func TestStoreFailureIsFatal(t *testing.T) {
	alloc := NewAllocator(failingCounterStore{})
	_, err := alloc.NextOrganisationID(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
}
