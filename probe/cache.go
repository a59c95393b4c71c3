package probe

import (
	"sync"
	"time"
)

// cacheEntry is one cached DNS answer, positive or negative.
type cacheEntry[T any] struct {
	value   T
	err     error
	expires time.Time
}

// queryCache is a TTL cache over DNS answers, keyed by query name for
// record lookups and by domain for whole scans. Negative answers are
// cached too. Entries are evicted lazily on read; there is no
// background sweeper.
type queryCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry[T]
	now     func() time.Time
}

func newQueryCache[T any](ttl time.Duration) *queryCache[T] {
	return &queryCache[T]{
		ttl:     ttl,
		entries: make(map[string]cacheEntry[T]),
		now:     time.Now,
	}
}

func (c *queryCache[T]) get(key string) (value T, err error, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return value, nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return value, nil, false
	}
	return e.value, e.err, true
}

func (c *queryCache[T]) put(key string, value T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[T]{
		value:   value,
		err:     err,
		expires: c.now().Add(c.ttl),
	}
}

func (c *queryCache[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
