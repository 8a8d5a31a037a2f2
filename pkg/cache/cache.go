package cache

import (
	"context"
	"sync"
	"time"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// Cache defines the interface for caching describe results
type Cache interface {
	// Get retrieves a describe result from the cache
	Get(ctx context.Context, object string) (*models.SObjectDescribe, bool)
	// Put stores a describe result in the cache
	Put(ctx context.Context, object string, describe *models.SObjectDescribe)
	// Delete removes a describe result from the cache
	Delete(ctx context.Context, object string)
	// Clear removes all entries from the cache
	Clear(ctx context.Context)
	// Close releases any resources held by the cache
	Close() error
}

// entry represents a single cache entry with metadata
type entry struct {
	describe  *models.SObjectDescribe
	createdAt time.Time
	lastUsed  time.Time
}

// MemoryCache implements Cache using in-memory storage with TTL expiry and
// LRU eviction once the entry limit is reached.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	ttl        time.Duration
	stats      *StatsCollector
	now        func() time.Time
}

// NewMemoryCache creates a memory cache from the given configuration.
func NewMemoryCache(cfg *Config) *MemoryCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &MemoryCache{
		entries:    make(map[string]*entry),
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		now:        time.Now,
	}
	if cfg.EnableStats {
		c.stats = NewStatsCollector()
	}
	return c
}

// Get retrieves a describe result from the cache. Expired entries count as
// misses and are removed lazily.
func (c *MemoryCache) Get(ctx context.Context, object string) (*models.SObjectDescribe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[object]
	if !ok {
		c.recordMiss()
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl {
		delete(c.entries, object)
		c.recordEviction()
		c.recordMiss()
		return nil, false
	}

	e.lastUsed = c.now()
	c.recordHit()
	return e.describe, true
}

// Put stores a describe result in the cache
func (c *MemoryCache) Put(ctx context.Context, object string, describe *models.SObjectDescribe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[object]; !ok && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[object] = &entry{
		describe:  describe,
		createdAt: c.now(),
		lastUsed:  c.now(),
	}
	if c.stats != nil {
		c.stats.UpdateSize(int64(len(c.entries)))
	}
}

// Delete removes a describe result from the cache
func (c *MemoryCache) Delete(ctx context.Context, object string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, object)
	if c.stats != nil {
		c.stats.UpdateSize(int64(len(c.entries)))
	}
}

// Clear removes all entries from the cache
func (c *MemoryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	if c.stats != nil {
		c.stats.UpdateSize(0)
	}
}

// Close releases any resources held by the cache
func (c *MemoryCache) Close() error {
	c.Clear(context.Background())
	return nil
}

// Stats returns a snapshot of cache statistics, or a zero value when stats
// collection is disabled.
func (c *MemoryCache) Stats() Stats {
	if c.stats == nil {
		return Stats{}
	}
	return c.stats.GetStats()
}

// evictOldest removes the least recently used entry from the cache
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, e := range c.entries {
		if oldestKey == "" || e.lastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastUsed
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.recordEviction()
	}
}

func (c *MemoryCache) recordHit() {
	if c.stats != nil {
		c.stats.RecordHit()
	}
}

func (c *MemoryCache) recordMiss() {
	if c.stats != nil {
		c.stats.RecordMiss()
	}
}

func (c *MemoryCache) recordEviction() {
	if c.stats != nil {
		c.stats.RecordEviction()
	}
}
