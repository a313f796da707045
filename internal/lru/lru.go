// Package lru implements a fixed-capacity, least-recently-used cache.
//
// # Overview
//
// The cache is the canonical hash-map-plus-doubly-linked-list design: a
// map from key to list node gives O(1) lookup, and the list keeps nodes in
// recency order so eviction and promotion are both O(1) pointer surgery
// with no allocation on the hot path.
//
//	┌─────────────────────────────────────────────┐
//	│                  Cache                       │
//	├─────────────────────────────────────────────┤
//	│  index: map[string]*node  (back-pointers)    │
//	│  list:  doubly-linked, head = most recent    │
//	└─────────────────────────────────────────────┘
//	   head (MRU) <-> ... <-> tail (LRU, evicted first)
//
// The map never owns recency order; the list is authoritative for that,
// and the map only holds pointers into it. This avoids any cycle between
// the two structures: deleting a node unlinks it from the list and
// removes its map entry in the same step.
package lru

import "container/list"

// entry is the payload stored at each list node.
type entry struct {
	key   string
	value []byte
}

// Cache is a fixed-capacity least-recently-used cache mapping byte-string
// keys to byte-string values. It is not safe for concurrent use; callers
// that need concurrent access must serialize it externally (the partition
// store does this by confining a Cache to a single execution context).
type Cache struct {
	capacity int
	index    map[string]*list.Element
	order    *list.List // front = most recently used, back = least
}

// New creates a cache with the given capacity. Capacity must be at least
// 1; a non-positive capacity is a construction error, not a runtime one,
// since a zero-capacity cache can never hold an entry.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Cache{
		capacity: capacity,
		index:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}, nil
}

// Get returns the current value for key and true if present, promoting
// the entry to most-recently-used. It returns (nil, false) on a miss
// without mutating cache state.
func (c *Cache) Get(key string) ([]byte, bool) {
	el, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Put inserts or updates key with value, making it most-recently-used. If
// the key already has an identical value, the entry is still bumped to
// the front: recency tracks access, not change. If inserting a new key
// would exceed capacity, the single least-recently-used entry is evicted
// before Put returns. Put reports the evicted key, if any.
func (c *Cache) Put(key string, value []byte) (evictedKey string, evicted bool) {
	if el, ok := c.index[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return "", false
	}

	el := c.order.PushFront(&entry{key: key, value: value})
	c.index[key] = el

	if c.order.Len() <= c.capacity {
		return "", false
	}

	tail := c.order.Back()
	c.order.Remove(tail)
	evictedEntry := tail.Value.(*entry)
	delete(c.index, evictedEntry.key)
	return evictedEntry.key, true
}

// Remove deletes key from the cache if present; it is a no-op otherwise.
func (c *Cache) Remove(key string) {
	el, ok := c.index[key]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.index, key)
}

// Size returns the current number of entries held by the cache.
func (c *Cache) Size() int {
	return c.order.Len()
}

// Keys returns the cache's current keys in most-recently-used-first
// order. It exists for internal diagnostics only; it is not exposed
// over HTTP.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}
