package ledger

import (
	"sync"
	"time"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
)

// Index caches the latest balance per (product, size) group so a mutation can
// append a single correctly-totalled row instead of recomputing and rewriting
// the whole ledger. Apply only matches a full recompute while appended entries
// are not older than the group's last seen date; out-of-order backfill must go
// through a Rebuild.
type Index struct {
	mu       sync.Mutex
	balances map[models.GroupKey]models.Balance
	lastSeen map[models.GroupKey]time.Time
	primed   bool
}

// NewIndex returns an empty, unprimed index.
func NewIndex() *Index {
	return &Index{
		balances: make(map[models.GroupKey]models.Balance),
		lastSeen: make(map[models.GroupKey]time.Time),
	}
}

// Prime replaces the index contents with the balances of an already-computed
// ledger.
func (ix *Index) Prime(computed []models.LedgerEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.balances = make(map[models.GroupKey]models.Balance, len(computed))
	ix.lastSeen = make(map[models.GroupKey]time.Time, len(computed))
	for _, entry := range computed {
		key := entry.Key()
		ix.balances[key] = models.Balance{Primary: entry.TotalPrimary, Secondary: entry.TotalSecondary}
		if entry.Date.After(ix.lastSeen[key]) {
			ix.lastSeen[key] = entry.Date
		}
	}
	ix.primed = true
}

// Primed reports whether the index has been loaded from the ledger since
// startup or the last invalidation.
func (ix *Index) Primed() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.primed
}

// Apply folds a new entry into its group's cached balance and returns the
// entry with the Total fields filled. It reports false when the entry is
// dated before the group's newest entry, in which case the caller must fall
// back to a full recompute.
func (ix *Index) Apply(entry models.LedgerEntry) (models.LedgerEntry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.primed {
		return entry, false
	}

	key := entry.Key()
	if last, ok := ix.lastSeen[key]; ok && entry.Date.Before(last) {
		return entry, false
	}

	bal := ix.balances[key]
	sign := entry.Action.Sign()
	bal.Primary = Round3(bal.Primary + sign*entry.QtyPrimary)
	bal.Secondary = Round3(bal.Secondary + sign*entry.QtySecondary)
	ix.balances[key] = bal
	ix.lastSeen[key] = entry.Date

	entry.TotalPrimary = bal.Primary
	entry.TotalSecondary = bal.Secondary
	return entry, true
}

// Balance returns the cached balance for a group.
func (ix *Index) Balance(key models.GroupKey) (models.Balance, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	bal, ok := ix.balances[key]
	return bal, ok
}

// Invalidate clears the index, forcing the next mutation to rebuild from the
// ledger.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.balances = make(map[models.GroupKey]models.Balance)
	ix.lastSeen = make(map[models.GroupKey]time.Time)
	ix.primed = false
}
