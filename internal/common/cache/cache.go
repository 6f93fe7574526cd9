// Package cache provides the bounded, TTL-aware in-process caches shared by the
// response pipeline: the retrieval cache, the recent-query set and the per-session
// failure counters.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Bounded is a mutex-guarded map with a capacity and an optional TTL. When full, the
// oldest inserted entry is evicted. A zero TTL means entries never expire.
type Bounded[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[K]*list.Element
	now      func() time.Time
}

type entry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
}

// Option customises a Bounded cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a cache holding at most capacity entries. capacity < 1 is treated as 1.
func New[K comparable, V any](capacity int, ttl time.Duration, opts ...Option) *Bounded[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[K, V]{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
		now:      o.now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Bounded[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeElement(el)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, refreshing its age and evicting the oldest entries
// when the capacity is exceeded.
func (c *Bounded[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.storedAt = c.now()
		c.order.MoveToBack(el)
		return
	}

	el := c.order.PushBack(&entry[K, V]{key: key, value: value, storedAt: c.now()})
	c.items[key] = el
	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Front())
	}
}

// Update atomically replaces the value under key with fn(current, found).
func (c *Bounded[K, V]) Update(key K, fn func(current V, found bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current V
	found := false
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		if c.expired(e) {
			c.removeElement(el)
		} else {
			current, found = e.value, true
		}
	}

	next := fn(current, found)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = next
		e.storedAt = c.now()
		c.order.MoveToBack(el)
		return next
	}
	c.items[key] = c.order.PushBack(&entry[K, V]{key: key, value: next, storedAt: c.now()})
	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Front())
	}
	return next
}

// Delete removes key.
func (c *Bounded[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Len reports the number of stored entries, including ones that expired but have not
// been touched since.
func (c *Bounded[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every entry.
func (c *Bounded[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

func (c *Bounded[K, V]) expired(e *entry[K, V]) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}

func (c *Bounded[K, V]) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*entry[K, V])
	delete(c.items, e.key)
}
