package sheets

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CachedStore fronts a Store with a short-lived read cache. Every read within
// the freshness window is served from memory; writes invalidate the written
// sheet so a writer observes its own write. Other processes sharing the
// spreadsheet are invisible to the cache for up to one window.
type CachedStore struct {
	inner  Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	rows      [][]interface{}
	fetchedAt time.Time
}

// NewCachedStore wraps the store with a read cache of the given freshness
// window. A zero or negative ttl disables caching.
func NewCachedStore(inner Store, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{
		inner:   inner,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Read serves the sheet from cache when fresh, falling through to the backend
// otherwise.
func (c *CachedStore) Read(ctx context.Context, sheet string) ([][]interface{}, error) {
	if c.ttl > 0 {
		c.mu.Lock()
		entry, ok := c.entries[sheet]
		c.mu.Unlock()
		if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
			return entry.rows, nil
		}
	}

	rows, err := c.inner.Read(ctx, sheet)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[sheet] = cacheEntry{rows: rows, fetchedAt: c.now()}
		c.mu.Unlock()
	}
	return rows, nil
}

// Overwrite writes through and drops the sheet's cached copy.
func (c *CachedStore) Overwrite(ctx context.Context, sheet string, rows [][]interface{}) error {
	if err := c.inner.Overwrite(ctx, sheet, rows); err != nil {
		return err
	}
	c.Invalidate(sheet)
	return nil
}

// Append writes through and drops the sheet's cached copy.
func (c *CachedStore) Append(ctx context.Context, sheet string, row []interface{}) error {
	if err := c.inner.Append(ctx, sheet, row); err != nil {
		return err
	}
	c.Invalidate(sheet)
	return nil
}

// Invalidate drops one sheet from the cache.
func (c *CachedStore) Invalidate(sheet string) {
	c.mu.Lock()
	delete(c.entries, sheet)
	c.mu.Unlock()
}

// InvalidateAll clears the whole cache, the manual "refresh" recovery path.
func (c *CachedStore) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	c.logger.Debug("sheet cache cleared")
}
