package ledger

// candidates holds the running winners of one pass over the free regions.
type candidates struct {
	first, best, worst Region
	found              bool
	bestWaste          int64
}

// scan folds over the free regions that can hold size bytes, in address
// order. Strict comparisons keep the lowest address on ties.
func (l *Ledger) scan(size int64) candidates {
	var c candidates
	l.regions.Ascend(func(r Region) bool {
		if !r.Free() || r.Size < size {
			return true
		}
		waste := r.Size - size
		if !c.found {
			c.first, c.best, c.worst = r, r, r
			c.bestWaste = waste
			c.found = true
			return true
		}
		if waste < c.bestWaste {
			c.best, c.bestWaste = r, waste
		}
		if r.Size > c.worst.Size {
			c.worst = r
		}
		return true
	})
	return c
}

// pick returns the candidate for strategy.
func (c candidates) pick(strategy Strategy) (Region, bool) {
	if !c.found {
		return Region{}, false
	}
	switch strategy {
	case FirstFit:
		return c.first, true
	case BestFit:
		return c.best, true
	case WorstFit:
		return c.worst, true
	}
	return Region{}, false
}
