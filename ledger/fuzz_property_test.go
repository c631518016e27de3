package ledger_test

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/ledger"
	"github.com/joshuapare/memsim/ledger/verify"
)

// Test_Fuzz_RandomOps_GuardInvariants performs random allocate, release and
// compact operations and validates the layout after every step.
func Test_Fuzz_RandomOps_GuardInvariants(t *testing.T) {
	const total = 4096

	l, err := ledger.New(total)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility
	live := make(map[string]int64)
	strategies := []ledger.Strategy{ledger.FirstFit, ledger.BestFit, ledger.WorstFit}

	for i := range 2000 {
		switch op := rng.Intn(10); {
		case op < 5: // Allocate
			owner := fmt.Sprintf("P%d", i)
			size := int64(1 + rng.Intn(400))
			before := l.Snapshot()

			r, allocErr := l.Allocate(size, owner, strategies[rng.Intn(len(strategies))])
			if allocErr != nil {
				require.ErrorIs(t, allocErr, ledger.ErrNoFit, "step %d", i)
				assert.Equal(t, before, l.Snapshot(), "step %d: failed alloc mutated ledger", i)
				break
			}
			require.Equal(t, size, r.Size)
			live[owner] = size

		case op < 9: // Release
			for owner, size := range live {
				freed, relErr := l.Release(owner)
				require.NoError(t, relErr, "step %d", i)
				require.Equal(t, size, freed.Size)
				delete(live, owner)
				break
			}

		default: // Compact
			l.Compact()
			snap := l.Snapshot()
			free := snap[len(snap)-1]
			for _, r := range snap[:len(snap)-1] {
				require.False(t, r.Free(), "step %d: free region before tail after compact", i)
			}
			if len(live) == 0 {
				require.True(t, free.Free())
			}
		}

		require.NoError(t, verify.All(l.Snapshot(), total), "step %d", i)

		var used int64
		for _, sz := range live {
			used += sz
		}
		require.Equal(t, used, l.Used(), "step %d: used bytes", i)
	}
}

// Test_Fuzz_CompactTwice checks that compacting an already compacted
// layout changes nothing, for many random layouts.
func Test_Fuzz_CompactTwice(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := range 50 {
		l, err := ledger.New(1000)
		require.NoError(t, err)

		n := 1 + rng.Intn(15)
		for i := range n {
			_, _ = l.Allocate(int64(1+rng.Intn(120)), fmt.Sprintf("P%d", i), ledger.FirstFit)
		}
		for i := range n {
			if rng.Intn(2) == 0 {
				_, _ = l.Release(fmt.Sprintf("P%d", i))
			}
		}

		l.Compact()
		once := l.Snapshot()
		l.Compact()
		require.Equal(t, once, l.Snapshot(), "round %d", round)
		require.NoError(t, verify.All(once, 1000), "round %d", round)
	}
}

func TestGuarded_ConcurrentCallers(t *testing.T) {
	const (
		workers = 8
		rounds  = 200
		total   = 1 << 16
	)

	l, err := ledger.New(total)
	require.NoError(t, err)
	g := ledger.NewGuarded(l)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rounds {
				owner := fmt.Sprintf("w%d-%d", w, i)
				if _, err := g.Allocate(64, owner, ledger.BestFit); err != nil {
					errs <- err
					return
				}
				if i%3 == 0 {
					g.Compact()
				}
				if _, err := g.Release(owner); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, verify.All(g.Snapshot(), g.TotalSize()))
	assert.Equal(t, []ledger.Region{{Start: 0, Size: total}}, g.Snapshot())
	assert.Equal(t, workers*rounds, g.Stats().AllocCalls)
}

func TestGuarded_With(t *testing.T) {
	l, err := ledger.New(100)
	require.NoError(t, err)
	g := ledger.NewGuarded(l)

	sentinel := errors.New("stop")
	err = g.With(func(l *ledger.Ledger) error {
		if _, err := l.Allocate(10, "A", ledger.FirstFit); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Work done before the callback failed is kept.
	assert.Equal(t, []ledger.Region{
		{Start: 0, Size: 10, Owner: "A"},
		{Start: 10, Size: 90},
	}, g.Snapshot())
}
