package recurrence

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// cacheEntry is one cached expansion result.
type cacheEntry struct {
	instants   []time.Time
	expiresAt  time.Time
	accessedAt time.Time
}

// Cache memoizes expansion results per (rule, window, timezone) key.
// Identical calls within the TTL return the cached instants instead of
// re-running the calendar arithmetic; expansion is deterministic, so a
// hit is always byte-identical to a fresh expansion.
type Cache struct {
	entries         map[string]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the expansion cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to sweep expired entries
}

// DefaultCacheConfig provides sensible defaults for expansion caching.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewCache creates an expansion cache with the given configuration and
// starts its cleanup goroutine. Callers own the cache and should Close
// it when done.
func NewCache(config CacheConfig) *Cache {
	cache := &Cache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// cacheKey hashes the full identity of an expansion call. Rule String
// renderings are deterministic and complete, so two equal calls always
// collide and two different calls practically never do. The limit is
// part of the identity: a capped expansion and an uncapped one over
// the same window are different payloads and must not share an entry.
func cacheKey(r Rule, w Window, cal Calendar, limit int) string {
	hasher := sha256.New()
	hasher.Write([]byte(r.String()))
	hasher.Write([]byte(w.Start.Format(time.RFC3339Nano)))
	hasher.Write([]byte(w.End.Format(time.RFC3339Nano)))
	hasher.Write([]byte(cal.Location().String()))
	hasher.Write([]byte(fmt.Sprintf("limit=%d", limit)))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached expansion if it exists and hasn't expired.
// limit must match the value passed to the corresponding Set; 0 means
// the expansion was uncapped.
func (c *Cache) Get(r Rule, w Window, cal Calendar, limit int) ([]time.Time, bool) {
	key := cacheKey(r, w, cal, limit)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	return entry.instants, true
}

// Set stores an expansion result under the given cap; 0 means uncapped.
func (c *Cache) Set(r Rule, w Window, cal Calendar, limit int, instants []time.Time) {
	key := cacheKey(r, w, cal, limit)
	now := time.Now()

	entry := &cacheEntry{
		instants:   instants,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries, then least-recently-accessed entries
// while still over the limit. Callers hold the write lock.
func (c *Cache) cleanup() {
	now := time.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldestAccess time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.accessedAt.Before(oldestAccess) {
				oldestKey = key
				oldestAccess = entry.accessedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

// cleanupLoop runs periodic cleanup until Close.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache.
func (c *Cache) Close() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := time.Now()

	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache occupancy.
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
