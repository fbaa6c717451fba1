// Package cache implements the offset/revision cache the writer populates on
// every commit and the reader consults to avoid scanning the revisions
// index file. Eviction uses a doubly-linked LRU queue plus a map index,
// keyed by revision number.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// RevisionFileData is the cached payload for one committed revision: the
// absolute offset of its RevisionRootPage plus its commit time, mirroring
// the 16-byte on-disk revisions-index record.
type RevisionFileData struct {
	Offset uint64
	Timestamp time.Time
}

type entry struct {
	revision uint64
	data RevisionFileData
}

// RevisionCache is a fixed-capacity LRU cache safe for concurrent readers
// with a single writer (the commit path), matching the writer's
// single-writer discipline.
type RevisionCache struct {
	mu sync.Mutex
	capacity int
	ll *list.List
	index map[uint64]*list.Element
}

// NewRevisionCache creates a cache holding up to capacity revisions. A
// non-positive capacity defaults to 1024.
func NewRevisionCache(capacity int) *RevisionCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &RevisionCache{
		capacity: capacity,
		ll: list.New(),
		index: make(map[uint64]*list.Element),
	}
}

// Put inserts or updates the cached entry for revision, marking it
// most-recently-used and evicting the least-recently-used entry if the
// cache is over capacity.
func (c *RevisionCache) Put(revision uint64, data RevisionFileData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[revision]; ok {
		el.Value.(*entry).data = data
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry{revision: revision, data: data})
	c.index[revision] = el
	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

// Get returns the cached entry for revision and whether it was present,
// marking it most-recently-used on a hit.
func (c *RevisionCache) Get(revision uint64) (RevisionFileData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[revision]
	if !ok {
		return RevisionFileData{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).data, true
}

// Len reports the number of cached revisions.
func (c *RevisionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *RevisionCache) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}
	c.ll.Remove(oldest)
	delete(c.index, oldest.Value.(*entry).revision)
}
