// Package verify provides validation functions for ledger region layouts.
//
// These helpers are used in tests and by the shell's check mode to make
// sure every operation leaves the layout consistent:
//
//	if err := verify.All(l.Snapshot(), l.TotalSize()); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at region %d: %s\n", verr.Type, verr.Index, verr.Message)
//	    }
//	}
//
// Layout covers ordering, contiguity, coverage and owner uniqueness.
// Coalesced covers the rule that no two adjacent regions are both free.
package verify

import (
	"fmt"

	"github.com/joshuapare/memsim/ledger"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Index   int // Region index where the error occurred (-1 if N/A)
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at region %d: %s", e.Type, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// All validates every layout invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func All(regions []ledger.Region, total int64) error {
	if err := Layout(regions, total); err != nil {
		return err
	}
	return Coalesced(regions)
}

// Layout checks that regions are ordered, positive-sized, contiguous from 0
// to total, and that no owner appears twice.
func Layout(regions []ledger.Region, total int64) error {
	if len(regions) == 0 {
		return &ValidationError{
			Type:    "Layout",
			Message: "no regions",
			Index:   -1,
		}
	}

	owners := make(map[string]int, len(regions))
	var want int64
	for i, r := range regions {
		if r.Size <= 0 {
			return &ValidationError{
				Type:    "Layout",
				Message: fmt.Sprintf("non-positive size %d", r.Size),
				Index:   i,
			}
		}
		if r.Start != want {
			return &ValidationError{
				Type:    "Layout",
				Message: fmt.Sprintf("region starts at %d, expected %d", r.Start, want),
				Index:   i,
				Details: map[string]interface{}{
					"start":    r.Start,
					"expected": want,
				},
			}
		}
		if !r.Free() {
			if j, dup := owners[r.Owner]; dup {
				return &ValidationError{
					Type:    "Owner",
					Message: fmt.Sprintf("owner %q also holds region %d", r.Owner, j),
					Index:   i,
				}
			}
			owners[r.Owner] = i
		}
		want = r.End()
	}

	if want != total {
		return &ValidationError{
			Type:    "Layout",
			Message: fmt.Sprintf("regions end at %d, total size is %d", want, total),
			Index:   len(regions) - 1,
			Details: map[string]interface{}{
				"end":   want,
				"total": total,
			},
		}
	}
	return nil
}

// Coalesced checks that no two adjacent regions are both free.
func Coalesced(regions []ledger.Region) error {
	for i := 1; i < len(regions); i++ {
		if regions[i-1].Free() && regions[i].Free() {
			return &ValidationError{
				Type:    "Coalesce",
				Message: fmt.Sprintf("adjacent free regions %s and %s", regions[i-1], regions[i]),
				Index:   i,
			}
		}
	}
	return nil
}
