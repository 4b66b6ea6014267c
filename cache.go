package connect

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// IdentityCache is an invalidate-on-demand cache of loaded local accounts,
// used to skip a store round trip on the re-authentication path. Absence of a
// cache is a valid configuration; use NoopIdentityCache.
type IdentityCache interface {
	Get(id uuid.UUID) (*LocalAccount, bool)
	Put(account *LocalAccount)
	Remove(id uuid.UUID)
}

// NoopIdentityCache never caches; every read goes to the account resolver.
type NoopIdentityCache struct{}

func (NoopIdentityCache) Get(uuid.UUID) (*LocalAccount, bool) { return nil, false }
func (NoopIdentityCache) Put(*LocalAccount)                   {}
func (NoopIdentityCache) Remove(uuid.UUID)                    {}

type lruEntry struct {
	id      uuid.UUID
	account *LocalAccount
}

// LRUIdentityCache is a thread-safe bounded cache keyed by account id. When
// it reaches capacity the least recently used account is evicted.
type LRUIdentityCache struct {
	capacity int
	items    map[uuid.UUID]*list.Element
	eviction *list.List
	mu       sync.Mutex
}

// NewLRUIdentityCache creates a cache with the given capacity. The capacity
// must be positive, otherwise it panics.
func NewLRUIdentityCache(capacity int) *LRUIdentityCache {
	if capacity <= 0 {
		panic("identity cache capacity must be positive")
	}
	return &LRUIdentityCache{
		capacity: capacity,
		items:    make(map[uuid.UUID]*list.Element),
		eviction: list.New(),
	}
}

// Get retrieves an account and marks it as recently used.
func (c *LRUIdentityCache) Get(id uuid.UUID) (*LocalAccount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[id]; ok {
		c.eviction.MoveToFront(elem)
		return elem.Value.(*lruEntry).account, true
	}
	return nil, false
}

// Put adds or refreshes an account. Accounts without an id are ignored.
func (c *LRUIdentityCache) Put(account *LocalAccount) {
	if account == nil || account.ID == uuid.Nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[account.ID]; ok {
		c.eviction.MoveToFront(elem)
		elem.Value.(*lruEntry).account = account
		return
	}

	elem := c.eviction.PushFront(&lruEntry{id: account.ID, account: account})
	c.items[account.ID] = elem

	if c.eviction.Len() > c.capacity {
		oldest := c.eviction.Back()
		if oldest != nil {
			c.eviction.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).id)
		}
	}
}

// Remove invalidates a cached account.
func (c *LRUIdentityCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[id]; ok {
		c.eviction.Remove(elem)
		delete(c.items, id)
	}
}

// Len returns the number of cached accounts.
func (c *LRUIdentityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}
