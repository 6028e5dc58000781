// Package cache remembers classifier results for repeated inputs.
package cache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/studybuddy/internal/domain/emotion"
)

// Cache maps input text to the scores a classifier returned for it.
type Cache interface {
	// Get returns a copy of the cached scores for text.
	Get(ctx context.Context, text string) ([]emotion.Score, bool)

	// Put records scores for text, evicting the oldest entry when full.
	Put(ctx context.Context, text string, scores []emotion.Score)


	Size() int64
}

// node is an entry in the insertion-ordered list.
type node struct {
	key        string
	scores     []emotion.Score
	prev, next *node
}

func (n *node) reset() {
	n.key = ""
	n.scores = nil
	n.prev = nil
	n.next = nil
}

// inMemoryCache keeps entries in a map plus a doubly linked list ordered by
// insertion. head is the newest entry, tail the next one to evict.
type inMemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemory creates a bounded in-memory cache.
func NewInMemory(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

func (c *inMemoryCache) Get(_ context.Context, text string) ([]emotion.Score, bool) {
	if c.maxSize <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	return slices.Clone(n.scores), true
}

func (c *inMemoryCache) Put(_ context.Context, text string, scores []emotion.Score) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[text]; ok {
		n.scores = slices.Clone(scores)
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = text
	n.scores = slices.Clone(scores)
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[text] = n
	c.size.Add(1)
}

// evictOldest drops the tail. Must be called with c.mu held.
func (c *inMemoryCache) evictOldest() {
	if c.tail != nil {
		c.remove(c.tail)
	}
}

// remove unlinks n and returns it to the pool. Must be called with c.mu held.
func (c *inMemoryCache) remove(n *node) {
	delete(c.entries, n.key)
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}

// Size returns the current number of cached inputs.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}
