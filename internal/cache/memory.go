package cache

import (
	"context"
	"sync"
	"time"
)

var _ CacheManager = (*MemoryCache)(nil)

// MemoryCache is a bounded in-process CacheManager with TTL support.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64
}

type memoryEntry struct {
	entry     *CacheEntry
	createdAt time.Time
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithMaxSize sets the maximum number of entries
func WithMaxSize(n int) Option {
	return func(c *MemoryCache) {
		c.maxSize = n
	}
}

// WithTTL sets the time-to-live for entries. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(c *MemoryCache) {
		c.ttl = d
	}
}

// NewMemoryCache creates a memory cache holding up to 1000 entries for an
// hour unless configured otherwise.
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: 1000,
		ttl:     time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := key.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h]
	if ok && e.expired(time.Now()) {
		delete(c.entries, h)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, ErrCacheMiss
	}
	c.hits++
	return e.entry, nil
}

func (c *MemoryCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h := entry.Key.Hash()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[h]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	e := &memoryEntry{entry: entry, createdAt: now}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = now.Unix()
	}
	c.entries[h] = e
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.Hash())
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Evictions int64   `json:"evictions"`
}

// evictOldest removes the oldest entry by creation time.
// Must be called with lock held
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}
