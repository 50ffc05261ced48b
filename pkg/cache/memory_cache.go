package cache

import (
	"sync"
	"time"
)

type entry struct {
	value      interface{}
	expiration int64
}

// MemoryCache is a TTL key/value store for slow-changing venue metadata
// such as market listings. A zero TTL stores forever.
type MemoryCache struct {
	items  sync.Map
	stopCh chan struct{}
	once   sync.Once
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{stopCh: make(chan struct{})}
	go c.janitor()
	return c
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}
	c.items.Store(key, &entry{value: value, expiration: exp})
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	v, ok := c.items.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if e.expiration > 0 && time.Now().UnixNano() > e.expiration {
		c.items.Delete(key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Delete(key string) {
	c.items.Delete(key)
}

// Stop ends the background janitor. Safe to call more than once.
func (c *MemoryCache) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}

func (c *MemoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			c.items.Range(func(key, value interface{}) bool {
				if e := value.(*entry); e.expiration > 0 && now > e.expiration {
					c.items.Delete(key)
				}
				return true
			})
		}
	}
}
