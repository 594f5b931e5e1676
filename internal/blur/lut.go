package blur

import (
	"container/list"
	"sync"
)

// tableCacheSize bounds how many division tables stay resident. A table for
// radius r holds 256*(r+1)^2 bytes, so the cap matters at large radii.
const tableCacheSize = 4

// tableCache is an LRU of division tables keyed by radius.
type tableCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[int]*list.Element
	lru     *list.List // Front = most recently used
}

type tableEntry struct {
	radius int
	table  []uint8
}

func newTableCache(maxSize int) *tableCache {
	return &tableCache{
		maxSize: maxSize,
		entries: make(map[int]*list.Element),
		lru:     list.New(),
	}
}

// get returns the table for radius, building it on a miss.
func (c *tableCache) get(radius int) []uint8 {
	c.mu.Lock()
	if elem, ok := c.entries[radius]; ok {
		c.lru.MoveToFront(elem)
		t := elem.Value.(*tableEntry).table
		c.mu.Unlock()
		return t
	}
	c.mu.Unlock()

	// Build outside the lock; a racing builder for the same radius just loses.
	t := buildDivideTable(radius)

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[radius]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*tableEntry).table
	}
	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*tableEntry).radius)
	}
	c.entries[radius] = c.lru.PushFront(&tableEntry{radius: radius, table: t})
	return t
}

func (c *tableCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

var tables = newTableCache(tableCacheSize)

func divideTable(radius int) []uint8 {
	return tables.get(radius)
}

// buildDivideTable maps every reachable weighted sum to its channel value:
// table[k] == k / (radius+1)^2. The largest sum is 255*(radius+1)^2, so each
// entry fits in a byte.
func buildDivideTable(radius int) []uint8 {
	divsum := (radius + 1) * (radius + 1)
	table := make([]uint8, 256*divsum)
	for v := 0; v < 256; v++ {
		base := v * divsum
		for k := 0; k < divsum; k++ {
			table[base+k] = uint8(v)
		}
	}
	return table
}
