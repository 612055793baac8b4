// Package cache keeps the latest aggregation result per handle in memory.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/metrics"
)

// Kind distinguishes what a cached entry holds for a handle.
type Kind string

// KindAggregation is the only kind written today.
const KindAggregation Kind = "aggregation"

// Key addresses one cached entry.
type Key struct {
	Handle string
	Kind   Kind
}

// AggregationKey builds the key for a handle's latest aggregation. The handle
// is normalised so lookups ignore case and surrounding whitespace.
func AggregationKey(handle string) Key {
	return Key{Handle: model.NormalizeHandle(handle), Kind: KindAggregation}
}

// Store is the result cache contract. A later Put for the same key fully
// replaces the earlier value.
type Store interface {
	Put(ctx context.Context, key Key, value model.CachedResult)
	Get(ctx context.Context, key Key) (model.CachedResult, bool)
	Delete(ctx context.Context, key Key)
	Len() int64
}

// node is one entry in the recency list. head is the most recently written.
type node struct {
	key        Key
	value      model.CachedResult
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// memoryStore implements Store with a map plus a doubly linked list.
// For bounded mode (maxSize > 0) the oldest written entry is evicted first.
// For unbounded mode (maxSize <= 0) entries live until replaced or deleted.
type memoryStore struct {
	mu       sync.RWMutex
	entries  map[Key]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// New creates an in-memory result cache.
func New(opts ...Option) Store {
	s := &memoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = make(map[Key]*node)
	s.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return s
}

// Put stores value under key, replacing any previous value.
func (s *memoryStore) Put(_ context.Context, key Key, value model.CachedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[key]; ok {
		n.value = value
		s.unlink(n)
		s.pushFront(n)
		return
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	n := s.nodePool.Get().(*node)
	n.key = key
	n.value = value
	s.pushFront(n)
	s.entries[key] = n
	s.size.Add(1)
	metrics.UpdateCacheEntries(int(s.size.Load()))
}

// Get returns the value stored under key.
func (s *memoryStore) Get(_ context.Context, key Key) (model.CachedResult, bool) {
	s.mu.RLock()
	n, ok := s.entries[key]
	var v model.CachedResult
	if ok {
		v = n.value
	}
	s.mu.RUnlock()

	metrics.RecordCacheLookup(ok)
	return v, ok
}

// Delete drops key if present.
func (s *memoryStore) Delete(_ context.Context, key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	s.unlink(n)
	n.reset()
	s.nodePool.Put(n)
	s.size.Add(-1)
	metrics.UpdateCacheEntries(int(s.size.Load()))
}

// Len returns the number of cached entries.
func (s *memoryStore) Len() int64 {
	return s.size.Load()
}

// pushFront must be called with s.mu held.
func (s *memoryStore) pushFront(n *node) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// unlink must be called with s.mu held.
func (s *memoryStore) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// evictOldest must be called with s.mu held.
func (s *memoryStore) evictOldest() {
	n := s.tail
	if n == nil {
		return
	}
	delete(s.entries, n.key)
	s.unlink(n)
	n.reset()
	s.nodePool.Put(n)
	s.size.Add(-1)
}
