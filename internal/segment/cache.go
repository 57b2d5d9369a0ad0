package segment

import (
	"container/list"
	"sync"
)

// resultCache is a bounded LRU of segmentation results keyed by the content
// hash of the input bytes. Entries own their Mats; lookups hand out clones
// so callers can Close results independently.
type resultCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List               // front = most recently used
	entries map[string]*list.Element // value: *cacheEntry
}

type cacheEntry struct {
	key    string
	result *Result
}

func newResultCache(maxSize int) *resultCache {
	return &resultCache{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *resultCache) get(key string) (*Result, bool) {
	if c.maxSize <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).result.clone(), true
}

func (c *resultCache) put(key string, result *Result) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		old := elem.Value.(*cacheEntry)
		old.result.Close()
		old.result = result.clone()
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, result: result.clone()})
	c.entries[key] = elem

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		entry := oldest.Value.(*cacheEntry)
		entry.result.Close()
		c.order.Remove(oldest)
		delete(c.entries, entry.key)
	}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
