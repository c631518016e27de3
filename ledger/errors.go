package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFit indicates that no free region is large enough under the chosen strategy.
	ErrNoFit = errors.New("ledger: no free region large enough")

	// ErrNotFound indicates a release for an owner with no live region.
	ErrNotFound = errors.New("ledger: owner not allocated")

	// ErrDuplicateOwner indicates an allocation under an owner that is already live.
	ErrDuplicateOwner = errors.New("ledger: owner already allocated")

	// ErrBadSize indicates a non-positive total or allocation size.
	ErrBadSize = errors.New("ledger: size must be positive")

	// ErrBadOwner indicates an empty owner name or one containing whitespace.
	ErrBadOwner = errors.New("ledger: owner must be a non-empty name without whitespace")

	// ErrBadStrategy indicates an unknown strategy value or code.
	ErrBadStrategy = errors.New("ledger: unknown strategy")
)

// FitError reports a failed placement. It unwraps to ErrNoFit.
type FitError struct {
	Owner    string
	Size     int64
	Strategy Strategy
}

func (e *FitError) Error() string {
	return fmt.Sprintf("not enough contiguous memory for process %s (%d bytes) using %s strategy",
		e.Owner, e.Size, e.Strategy.Code())
}

func (e *FitError) Unwrap() error { return ErrNoFit }

// OwnerError reports an operation rejected because of the owner's state.
// Err is ErrNotFound or ErrDuplicateOwner.
type OwnerError struct {
	Owner string
	Err   error
}

func (e *OwnerError) Error() string {
	if errors.Is(e.Err, ErrDuplicateOwner) {
		return fmt.Sprintf("process %s already holds memory", e.Owner)
	}
	return fmt.Sprintf("process %s not found in memory", e.Owner)
}

func (e *OwnerError) Unwrap() error { return e.Err }
