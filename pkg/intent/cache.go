package intent

import "sync"

// resultCache is a fixed-capacity LRU of classifications keyed by command text
type resultCache struct {
	capacity int
	entries  map[string]*cacheEntry
	head     *cacheEntry
	tail     *cacheEntry
	mu       sync.Mutex

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key   string
	value Intent
	prev  *cacheEntry
	next  *cacheEntry
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
	}
}

func (c *resultCache) get(key string) (Intent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return Intent{}, false
	}
	c.hits++
	c.unlink(entry)
	c.pushFront(entry)
	return entry.value, true
}

func (c *resultCache) put(key string, value Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.value = value
		c.unlink(entry)
		c.pushFront(entry)
		return
	}

	entry := &cacheEntry{key: key, value: value}
	c.entries[key] = entry
	c.pushFront(entry)

	if len(c.entries) > c.capacity {
		oldest := c.tail
		c.unlink(oldest)
		delete(c.entries, oldest.key)
	}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *resultCache) stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *resultCache) unlink(entry *cacheEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
	entry.prev = nil
	entry.next = nil
}

func (c *resultCache) pushFront(entry *cacheEntry) {
	entry.next = c.head
	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}
}
