package localstore

import (
	"context"
	"sync"
	"time"
)

// cachedStore layers a short-TTL in-memory read cache over another
// [LocalStore]. Reads served from the cache may lag a concurrent writer by
// up to the TTL; collaborators must treat the view as eventually
// consistent. Writes go through to the inner store and refresh the cache.
type cachedStore struct {
	inner LocalStore
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// WithCache wraps store with a read cache whose entries live for ttl.
func WithCache(store LocalStore, ttl time.Duration) LocalStore {
	return &cachedStore{
		inner:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *cachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, true, nil
	}

	value, found, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		c.put(key, value)
	}

	return value, found, nil
}

func (c *cachedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		return err
	}

	c.put(key, value)
	return nil
}

func (c *cachedStore) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return c.inner.Invalidate(ctx, key)
}

func (c *cachedStore) Close() error {
	return c.inner.Close()
}

func (c *cachedStore) put(key string, value []byte) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
