package memory

import (
	"context"
	"sync"
	"time"

	portidempotency "github.com/alanyang/project-registry/internal/port/idempotency"
)

var _ portidempotency.Store = (*IdempotencyCache)(nil)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyCache keeps processed request results for ttl.
type IdempotencyCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *IdempotencyCache) Check(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *IdempotencyCache) Store(_ context.Context, key, _ string, result []byte) error {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok && !now.After(existing.expiresAt) {
		return nil
	}
	c.entries[key] = cacheEntry{
		value:     append([]byte(nil), result...),
		expiresAt: now.Add(c.ttl),
	}
	return nil
}
