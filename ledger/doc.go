// Package ledger provides contiguous region allocation over a fixed-size address space.
//
// # Overview
//
// A Ledger tracks an ordered sequence of regions that exactly covers
// [0, TotalSize). Each region is either free or owned by one named process.
// The ledger supports four operations:
//
//   - Allocate(size, owner, strategy): place a new region in a free span
//   - Release(owner): free the owner's region and merge free neighbors
//   - Compact(): pack all allocations at low addresses
//   - Snapshot(): copy the current region sequence for display
//
// # Strategies
//
// Allocation scans free regions once, in address order, tracking three
// candidates at the same time:
//
//	FirstFit  lowest-address free region that is large enough
//	BestFit   free region with the smallest leftover (lowest address on ties)
//	WorstFit  largest free region (lowest address on ties)
//
// The requested strategy selects one of the three after the scan.
//
// # Usage Example
//
//	l, err := ledger.New(1000)
//	if err != nil {
//	    return err
//	}
//
//	r, err := l.Allocate(200, "A", ledger.FirstFit)
//	if errors.Is(err, ledger.ErrNoFit) {
//	    // not enough contiguous space
//	}
//
//	freed, err := l.Release("A")
//	report := l.Compact()
//
// # Invariants
//
// After every operation:
//
//  1. Regions are in ascending Start order.
//  2. Region 0 starts at 0, each region ends where the next begins, and the
//     last region ends at TotalSize.
//  3. No two adjacent regions are both free.
//  4. No two live regions share an owner.
//
// A failed operation leaves the ledger unchanged.
//
// # Storage
//
// Regions are kept in a B-tree keyed by start address together with an
// owner index, so release and neighbor lookup are O(log n). Allocation
// and compaction are O(n) in the number of regions.
//
// # Thread Safety
//
// Ledger instances are not thread-safe. Use Guarded when operations are
// submitted from more than one goroutine.
//
// # Related Packages
//
//   - github.com/joshuapare/memsim/ledger/verify: Layout invariant checks
//   - github.com/joshuapare/memsim/internal/shell: Command loop driving a ledger
package ledger
