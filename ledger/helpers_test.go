package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestLedger creates a ledger and applies first-fit allocations of the
// given sizes, named A, B, C, ... in order.
func newTestLedger(t testing.TB, total int64, sizes ...int64) *Ledger {
	t.Helper()

	l, err := New(total)
	require.NoError(t, err)
	for i, sz := range sizes {
		_, err := l.Allocate(sz, string(rune('A'+i)), FirstFit)
		require.NoError(t, err, "setup allocation %d (%d bytes)", i, sz)
	}
	assertInvariants(t, l)
	return l
}

// layout builds an expected region list from (start, size, owner) triples.
func layout(items ...any) []Region {
	out := make([]Region, 0, len(items)/3)
	for i := 0; i+2 < len(items); i += 3 {
		out = append(out, Region{
			Start: int64(items[i].(int)),
			Size:  int64(items[i+1].(int)),
			Owner: items[i+2].(string),
		})
	}
	return out
}

// assertInvariants checks ordering, contiguity, coverage, merging and the
// owner index against the region tree.
func assertInvariants(t testing.TB, l *Ledger) {
	t.Helper()

	regions := l.Snapshot()
	require.NotEmpty(t, regions, "ledger must never be empty")

	var next int64
	live := 0
	for i, r := range regions {
		// Invariant 1+2: contiguous, ordered, exhaustive
		assert.Equal(t, next, r.Start, "region %d %s: start", i, r)
		assert.Positive(t, r.Size, "region %d %s: size", i, r)
		next = r.End()

		// Invariant 3: free regions are merged
		if i > 0 && r.Free() {
			assert.False(t, regions[i-1].Free(),
				"regions %d and %d are both free: %s %s", i-1, i, regions[i-1], r)
		}

		// Invariant 4: owner index points at the owner's region
		if !r.Free() {
			live++
			start, ok := l.owners[r.Owner]
			assert.True(t, ok, "owner %s missing from index", r.Owner)
			assert.Equal(t, r.Start, start, "owner %s indexed at wrong start", r.Owner)
		}
	}
	assert.Equal(t, l.TotalSize(), next, "regions must end at total size")
	assert.Len(t, l.owners, live, "owner index size")
}
