package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/pennyscan/pkg/logger"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache used for company profiles when Redis is disabled.
// Values are stored JSON-encoded so hits decode exactly like the Redis cache.
// ⭐ SSOT: in-process caching lives here only
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *logger.Logger
	now     func() time.Time
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		logger:  log.Component("memory_cache"),
		now:     time.Now,
	}
}

// Get decodes the value at key into dest. Expired entries are misses.
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || !c.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// CleanStale drops expired entries and returns how many were removed
func (c *MemoryCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.WithFields(map[string]interface{}{
			"removed":   removed,
			"remaining": len(c.entries),
		}).Debug("Removed stale cache entries")
	}
	return removed
}

// Len returns the number of entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
