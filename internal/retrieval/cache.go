package retrieval

import (
	"sync"
	"time"
)

// QueryCache is a TTL cache mapping raw query text to its embedding.
// Access goes through narrow accessor operations: invalidation only
// happens via an explicit InvalidateAll call (from the ingestion
// orchestrator after an upsert, and from Vault.Purge through
// Engine.InvalidateCache), never as a side effect of construction. A
// read removes only the expired entry it looked up.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// NewQueryCache creates a cache with the given TTL. enabled=false makes
// every Get a miss and every Put a no-op, matching ENABLE_MEMORY_CACHE=false.
func NewQueryCache(ttl time.Duration, enabled bool) *QueryCache {
	return &QueryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		enabled: enabled,
		now:     time.Now,
	}
}

// Get returns the cached embedding for query, if present and unexpired.
func (c *QueryCache) Get(query string) ([]float32, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, query)
		return nil, false
	}
	return entry.vector, true
}

// Put stores vector for query with a fresh TTL.
func (c *QueryCache) Put(query string, vector []float32) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = cacheEntry{vector: vector, expiresAt: c.now().Add(c.ttl)}
}

// InvalidateAll drops every cached entry. The ingestion orchestrator
// calls this after a successful upsert and Vault.Purge calls it through
// Engine.InvalidateCache; it never runs implicitly.
func (c *QueryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live (possibly stale but not yet evicted)
// entries, for diagnostics and tests.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
