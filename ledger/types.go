package ledger

import (
	"fmt"
	"strings"
)

// Region is a contiguous span of the address space.
// An empty Owner marks the region as free.
type Region struct {
	Start int64  `json:"start"`
	Size  int64  `json:"size"`
	Owner string `json:"owner,omitempty"`
}

// End returns the exclusive end address.
func (r Region) End() int64 { return r.Start + r.Size }

// Last returns the inclusive end address, as shown in status reports.
func (r Region) Last() int64 { return r.Start + r.Size - 1 }

// Free reports whether the region has no owner.
func (r Region) Free() bool { return r.Owner == "" }

func (r Region) String() string {
	if r.Free() {
		return fmt.Sprintf("[%d:%d] free(%d)", r.Start, r.Last(), r.Size)
	}
	return fmt.Sprintf("[%d:%d] %s(%d)", r.Start, r.Last(), r.Owner, r.Size)
}

// Strategy selects which qualifying free region receives an allocation.
type Strategy uint8

const (
	FirstFit Strategy = iota + 1
	BestFit
	WorstFit
)

// ParseStrategy maps a strategy code (F, B or W, any case) or name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "first", "first-fit", "firstfit":
		return FirstFit, nil
	case "b", "best", "best-fit", "bestfit":
		return BestFit, nil
	case "w", "worst", "worst-fit", "worstfit":
		return WorstFit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadStrategy, s)
}

// Valid reports whether s is one of the defined strategies.
func (s Strategy) Valid() bool {
	return s >= FirstFit && s <= WorstFit
}

// Code returns the single-letter command code.
func (s Strategy) Code() string {
	switch s {
	case FirstFit:
		return "F"
	case BestFit:
		return "B"
	case WorstFit:
		return "W"
	}
	return "?"
}

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// MarshalText encodes the strategy as its name.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrBadStrategy, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts anything ParseStrategy accepts.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CompactionReport describes the effect of Compact.
type CompactionReport struct {
	// Moved is the number of allocations whose start address changed.
	Moved int `json:"moved"`

	// BytesMoved is the total size of the moved allocations.
	BytesMoved int64 `json:"bytes_moved"`

	// FreeRegionsBefore is the number of free regions before compaction.
	FreeRegionsBefore int `json:"free_regions_before"`

	// Reclaimed is the size of the trailing free region (0 if none).
	Reclaimed int64 `json:"reclaimed"`
}

// Stats holds operation counters for a ledger.
type Stats struct {
	AllocCalls       int   // Total Allocate() calls
	AllocFailures    int   // Allocate() calls rejected for any reason
	Splits           int   // Allocations that left a free remainder
	ReleaseCalls     int   // Total Release() calls
	ReleaseFailures  int   // Release() calls for unknown owners
	CoalesceBackward int   // Merges with the preceding free region
	CoalesceForward  int   // Merges with the following free region
	Compactions      int   // Compact() calls
	BytesAllocated   int64 // Total bytes handed out
	BytesReleased    int64 // Total bytes returned
	BytesMoved       int64 // Total bytes relocated by compaction
}

// Manager is the operation set shared by Ledger and Guarded.
type Manager interface {
	Allocate(size int64, owner string, strategy Strategy) (Region, error)
	Release(owner string) (Region, error)
	Compact() CompactionReport
	Snapshot() []Region
	TotalSize() int64
}
