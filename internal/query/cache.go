package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pders01/mrkt/internal/debuglog"
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache stores fetch results per key. Concurrent fetches for one key share
// a single call. Entries older than the TTL are dropped on access; a zero
// TTL keeps entries until they are invalidated.
type Cache[T any] struct {
	name   string
	ttl    time.Duration
	policy RetryPolicy

	mu      sync.Mutex
	entries map[string]entry[T]
	group   singleflight.Group

	now func() time.Time
}

func NewCache[T any](name string, ttl time.Duration, policy RetryPolicy) *Cache[T] {
	return &Cache[T]{
		name:    name,
		ttl:     ttl,
		policy:  policy,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the fresh value stored under key.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.fetchedAt) > c.ttl {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: value, fetchedAt: c.now()}
}

// Invalidate drops key so the next Fetch goes to the network.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch returns the cached value for key or calls fn, retrying per the
// cache's policy, and stores a successful result.
func (c *Cache[T]) Fetch(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		debuglog.Debugf("%s: cache hit for %q", c.name, key)
		return v, nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		var value T
		err := Retry(ctx, c.policy, func(ctx context.Context) error {
			v, err := fn(ctx)
			if err != nil {
				debuglog.Debugf("%s: attempt for %q failed: %v", c.name, key, err)
				return err
			}
			value = v
			return nil
		})
		if err != nil {
			return value, err
		}
		c.Set(key, value)
		return value, nil
	})
	if shared {
		debuglog.Debugf("%s: shared in-flight result for %q", c.name, key)
	}
	if err != nil {
		debuglog.WithFields(map[string]any{"resource": c.name, "key": key}).Errorf("fetch failed: %v", err)
		var zero T
		return zero, err
	}
	return result.(T), nil
}
