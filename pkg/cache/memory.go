package cache

import (
	"context"
	"sync"
	"time"

	"github.com/causalite/causalite/pkg/store"
)

// MemoryCache holds runs in process memory. Used by the HTTP server mode,
// where the process outlives individual requests. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	rec       *store.Record
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() Cache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get retrieves a cached run, evicting it when expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (*store.Record, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.rec, true, nil
}

// Set stores a run.
func (c *MemoryCache) Set(ctx context.Context, key string, rec *store.Record, ttl time.Duration) error {
	entry := memoryEntry{rec: rec}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Delete removes a cached run.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close does nothing for the memory cache.
func (c *MemoryCache) Close() error { return nil }

var _ Cache = (*MemoryCache)(nil)
