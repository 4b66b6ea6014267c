package connect

import (
	"context"
	"sync"
	"time"
)

// MemoryStateCache is an in-memory StateCache with per-entry TTL. Suitable
// for single-process deployments and tests; production setups usually point
// StateCache at their session store instead.
type MemoryStateCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]stateEntry
}

type stateEntry struct {
	nonce     string
	expiresAt time.Time
}

// NewMemoryStateCache creates a state cache. A zero ttl defaults to 10
// minutes.
func NewMemoryStateCache(ttl time.Duration) *MemoryStateCache {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryStateCache{
		ttl:     ttl,
		entries: make(map[string]stateEntry),
	}
}

// PutLoginState stores the nonce for a provider flow.
func (c *MemoryStateCache) PutLoginState(ctx context.Context, provider, nonce string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[provider] = stateEntry{
		nonce:     nonce,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// GetLoginState returns the stored nonce when present and not expired.
func (c *MemoryStateCache) GetLoginState(ctx context.Context, provider string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[provider]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, provider)
		return "", false
	}
	return entry.nonce, true
}

// RemoveLoginState drops the nonce for a provider flow.
func (c *MemoryStateCache) RemoveLoginState(ctx context.Context, provider string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, provider)
	return nil
}
