package services

import (
	"strings"
	"sync"
	"time"
)

type cacheItem struct {
	value      interface{}
	expiration int64
}

// Cache is a TTL cache for catalog reads. A zero TTL disables it.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewCache returns a cache whose entries live for ttl. Expired entries are
// swept every sweep interval until Close is called.
func NewCache(ttl, sweep time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	if ttl > 0 && sweep > 0 {
		go c.cleanupExpired(sweep)
	}
	return c
}

// Set stores value under key.
func (c *Cache) Set(key string, value interface{}) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{value: value, expiration: c.now().Add(c.ttl).UnixNano()}
}

// Get returns the live value stored under key.
func (c *Cache) Get(key string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || c.now().UnixNano() > item.expiration {
		return nil, false
	}
	return item.value, true
}

// DeleteByPrefix drops every key starting with prefix.
func (c *Cache) DeleteByPrefix(prefix string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Size returns the number of stored entries, expired or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now().UnixNano()
			for key, item := range c.items {
				if now > item.expiration {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
