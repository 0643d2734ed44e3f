package diag

import (
	"slices"
	"sync"
)

const maxBagSize = 0xFFFF

// Bag collects diagnostics of a generation run. It is safe for concurrent
// use and implements Reporter, so it can be handed to the generator directly.
type Bag struct {
	mu      sync.Mutex
	items   []Diagnostic
	limit   int
	dropped int
	worst   Severity
}

// NewBag returns a bag holding at most limit diagnostics; extra ones are
// counted as dropped.
func NewBag(limit int) *Bag {
	if limit <= 0 || limit > maxBagSize {
		limit = maxBagSize
	}
	return &Bag{limit: limit, items: make([]Diagnostic, 0, min(limit, 32))}
}

// Add stores d. It reports false when the bag is full.
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.limit {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	if d.Severity > b.worst {
		b.worst = d.Severity
	}
	return true
}

func (b *Bag) Report(d Diagnostic) { b.Add(d) }

// Len counts stored diagnostics, dropped ones excluded.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Dropped counts diagnostics rejected because of the limit.
func (b *Bag) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bag) HasErrors() bool   { return b.atLeast(SevError) }
func (b *Bag) HasWarnings() bool { return b.atLeast(SevWarning) }

func (b *Bag) atLeast(s Severity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) > 0 && b.worst >= s
}

// Items returns a copy of the stored diagnostics.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Merge appends everything other holds, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil || other == b {
		return
	}
	for _, d := range other.Items() {
		b.mu.Lock()
		if len(b.items) >= b.limit && b.limit < maxBagSize {
			b.limit++
		}
		b.mu.Unlock()
		b.Add(d)
	}
}

// Sort orders by location, then severity (worst first), then code.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.items, compareDiagnostics)
}

func compareDiagnostics(x, y Diagnostic) int {
	switch {
	case x.Primary != y.Primary:
		if x.Primary.Less(y.Primary) {
			return -1
		}
		return 1
	case x.Severity != y.Severity:
		return int(y.Severity) - int(x.Severity)
	case x.Code != y.Code:
		return int(x.Code) - int(y.Code)
	}
	return 0
}

// Dedup drops repeated diagnostics sharing code, location and message,
// keeping the first occurrence.
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[dedupKey]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := keyOf(d)
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}
