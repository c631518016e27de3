package ledger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/google/btree"
)

// btreeDegree keeps nodes small; region counts are expected to stay low.
const btreeDegree = 8

// Runtime debug flag for ledger logging - controlled by MEMSIM_LOG_LEDGER env var.
var logLedger = os.Getenv("MEMSIM_LOG_LEDGER") != ""

// logOut receives the debug trace.
var logOut io.Writer = os.Stderr

// Ledger owns the region sequence of one address space.
// - regions is a B-tree ordered by Start and always covers [0, total)
// - owners maps each live owner to the Start of its region.
type Ledger struct {
	total   int64
	regions *btree.BTreeG[Region]
	owners  map[string]int64

	stats Stats
}

func byStart(a, b Region) bool { return a.Start < b.Start }

// New creates a ledger with a single free region spanning [0, totalSize).
func New(totalSize int64) (*Ledger, error) {
	if totalSize <= 0 {
		return nil, ErrBadSize
	}
	l := &Ledger{
		total:   totalSize,
		regions: btree.NewG(btreeDegree, byStart),
		owners:  make(map[string]int64),
	}
	l.regions.ReplaceOrInsert(Region{Start: 0, Size: totalSize})
	return l, nil
}

// TotalSize returns the size of the address space.
func (l *Ledger) TotalSize() int64 { return l.total }

// Len returns the number of regions.
func (l *Ledger) Len() int { return l.regions.Len() }

// Stats returns a copy of the operation counters.
func (l *Ledger) Stats() Stats { return l.stats }

// Allocate places a region of exactly size bytes for owner.
//
// The free regions are scanned once in address order; strategy picks one
// of the first, best and worst candidates found. The allocation starts at
// the chosen region's start address and any leftover stays free directly
// after it. On failure the ledger is unchanged.
func (l *Ledger) Allocate(size int64, owner string, strategy Strategy) (Region, error) {
	l.stats.AllocCalls++

	switch {
	case size <= 0:
		l.stats.AllocFailures++
		return Region{}, ErrBadSize
	case !validOwner(owner):
		l.stats.AllocFailures++
		return Region{}, ErrBadOwner
	case !strategy.Valid():
		l.stats.AllocFailures++
		return Region{}, ErrBadStrategy
	}
	if _, live := l.owners[owner]; live {
		l.stats.AllocFailures++
		return Region{}, &OwnerError{Owner: owner, Err: ErrDuplicateOwner}
	}

	c := l.scan(size)
	hole, ok := c.pick(strategy)
	if !ok {
		l.stats.AllocFailures++
		return Region{}, &FitError{Owner: owner, Size: size, Strategy: strategy}
	}

	// Same key: replaces the free region in place.
	alloc := Region{Start: hole.Start, Size: size, Owner: owner}
	l.regions.ReplaceOrInsert(alloc)
	if rest := hole.Size - size; rest > 0 {
		l.regions.ReplaceOrInsert(Region{Start: alloc.End(), Size: rest})
		l.stats.Splits++
	}
	l.owners[owner] = alloc.Start
	l.stats.BytesAllocated += size

	if logLedger {
		fmt.Fprintf(logOut, "[LEDGER] alloc %s size=%d at=%d strategy=%s hole=%s\n",
			owner, size, alloc.Start, strategy, hole)
	}
	return alloc, nil
}

// Release frees the region held by owner and merges it with free neighbors,
// the preceding region first and then the following one. It returns the
// region as it was allocated.
func (l *Ledger) Release(owner string) (Region, error) {
	l.stats.ReleaseCalls++

	start, ok := l.owners[owner]
	if !ok {
		l.stats.ReleaseFailures++
		return Region{}, &OwnerError{Owner: owner, Err: ErrNotFound}
	}
	freed, _ := l.regions.Get(Region{Start: start})
	delete(l.owners, owner)
	l.stats.BytesReleased += freed.Size

	cur := Region{Start: freed.Start, Size: freed.Size}

	if prev, ok := l.before(cur.Start); ok && prev.Free() {
		l.regions.Delete(cur)
		cur.Start = prev.Start
		cur.Size += prev.Size
		l.stats.CoalesceBackward++
	}
	if next, ok := l.regions.Get(Region{Start: cur.End()}); ok && next.Free() {
		l.regions.Delete(next)
		cur.Size += next.Size
		l.stats.CoalesceForward++
	}
	l.regions.ReplaceOrInsert(cur)

	if logLedger {
		fmt.Fprintf(logOut, "[LEDGER] release %s %s -> %s\n", owner, freed, cur)
	}
	return freed, nil
}

// Compact moves every allocation down to the lowest free address, keeping
// their order, sizes and owners, and gathers all free space into a single
// trailing region.
func (l *Ledger) Compact() CompactionReport {
	l.stats.Compactions++

	var (
		report CompactionReport
		packed []Region
		next   int64
		free   int64
	)
	l.regions.Ascend(func(r Region) bool {
		if r.Free() {
			report.FreeRegionsBefore++
			free += r.Size
			return true
		}
		if r.Start != next {
			report.Moved++
			report.BytesMoved += r.Size
		}
		r.Start = next
		next = r.End()
		packed = append(packed, r)
		return true
	})
	if free > 0 {
		packed = append(packed, Region{Start: next, Size: free})
		report.Reclaimed = free
	}

	l.regions.Clear(true)
	for _, r := range packed {
		l.regions.ReplaceOrInsert(r)
		if !r.Free() {
			l.owners[r.Owner] = r.Start
		}
	}
	l.stats.BytesMoved += report.BytesMoved
	return report
}

// Snapshot returns the regions in address order. The ledger is not modified.
func (l *Ledger) Snapshot() []Region {
	out := make([]Region, 0, l.regions.Len())
	l.regions.Ascend(func(r Region) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Lookup returns the live region held by owner.
func (l *Ledger) Lookup(owner string) (Region, bool) {
	start, ok := l.owners[owner]
	if !ok {
		return Region{}, false
	}
	return l.regions.Get(Region{Start: start})
}

// Used returns the number of allocated bytes.
func (l *Ledger) Used() int64 {
	var used int64
	l.regions.Ascend(func(r Region) bool {
		if !r.Free() {
			used += r.Size
		}
		return true
	})
	return used
}

// Free returns the number of unallocated bytes.
func (l *Ledger) Free() int64 { return l.total - l.Used() }

// Fragmentation returns 1 - largestFree/totalFree, or 0 when no space is free.
// Zero means all free space is in one region.
func (l *Ledger) Fragmentation() float64 {
	var total, largest int64
	l.regions.Ascend(func(r Region) bool {
		if r.Free() {
			total += r.Size
			if r.Size > largest {
				largest = r.Size
			}
		}
		return true
	})
	if total == 0 {
		return 0
	}
	return 1 - float64(largest)/float64(total)
}

// before returns the region immediately preceding the one at start.
func (l *Ledger) before(start int64) (Region, bool) {
	var (
		prev  Region
		found bool
	)
	if start == 0 {
		return prev, false
	}
	l.regions.DescendLessOrEqual(Region{Start: start - 1}, func(r Region) bool {
		prev, found = r, true
		return false
	})
	return prev, found
}

func validOwner(owner string) bool {
	return owner != "" && strings.IndexFunc(owner, unicode.IsSpace) < 0
}
