package ledger

import "sync"

// Guarded serializes every operation on a Ledger with one mutex over the
// whole region sequence.
type Guarded struct {
	mu sync.Mutex
	l  *Ledger
}

// NewGuarded wraps l. The caller must not use l directly afterwards.
func NewGuarded(l *Ledger) *Guarded {
	return &Guarded{l: l}
}

func (g *Guarded) Allocate(size int64, owner string, strategy Strategy) (Region, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.l.Allocate(size, owner, strategy)
}

func (g *Guarded) Release(owner string) (Region, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.l.Release(owner)
}

func (g *Guarded) Compact() CompactionReport {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.l.Compact()
}

func (g *Guarded) Snapshot() []Region {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.l.Snapshot()
}

// TotalSize is fixed at construction and needs no lock.
func (g *Guarded) TotalSize() int64 { return g.l.total }

func (g *Guarded) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.l.Stats()
}

// With runs fn while holding the lock, for multi-step sequences that must
// not interleave with other callers.
func (g *Guarded) With(fn func(l *Ledger) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.l)
}

var (
	_ Manager = (*Ledger)(nil)
	_ Manager = (*Guarded)(nil)
)
