package priority

import (
	"sync"
	"time"
)

// CacheEntry is the last result a hook produced.
type CacheEntry struct {
	Timestamp time.Time
	Result    any
}

// resultCache keeps the last result per hook name. Entries are never evicted
// on read; a stale entry simply stops suppressing execution.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]CacheEntry)}
}

func (c *resultCache) store(name string, result any, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = CacheEntry{Timestamp: at, Result: result}
}

func (c *resultCache) get(name string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	return e, ok
}

// freshLocked reports whether name has an entry younger than ttl. Caller holds mu.
func (c *resultCache) freshLocked(name string, ttl time.Duration, now time.Time) bool {
	e, ok := c.entries[name]
	if !ok {
		return false
	}
	return now.Sub(e.Timestamp) < ttl
}

// clear drops one entry, or every entry when name is empty.
func (c *resultCache) clear(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.entries = make(map[string]CacheEntry)
		return
	}
	delete(c.entries, name)
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
