package cmap

import (
	"math/rand/v2"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is used when no valid shard count is given.
const DefaultShardCount = 16

// Map is a concurrent map from string keys to V.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint32
	seed   uint32
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

type config struct {
	shards int
	seed   uint32
	seeded bool
}

// Option configures a Map.
type Option func(*config)

// WithShards sets the shard count. Values that are not a positive power of
// two fall back to DefaultShardCount.
func WithShards(n int) Option {
	return func(c *config) { c.shards = n }
}

// WithSeed fixes the hash seed, making shard placement reproducible.
func WithSeed(seed uint32) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// New creates an empty map.
func New[V any](opts ...Option) *Map[V] {
	c := config{shards: DefaultShardCount}
	for _, opt := range opts {
		opt(&c)
	}
	if c.shards <= 0 || c.shards&(c.shards-1) != 0 {
		c.shards = DefaultShardCount
	}
	if !c.seeded {
		c.seed = rand.Uint32()
	}

	m := &Map[V]{
		shards: make([]*shard[V], c.shards),
		mask:   uint32(c.shards - 1),
		seed:   c.seed,
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) shardIndex(key string) int {
	return int(murmur3.Sum32WithSeed([]byte(key), m.seed) & m.mask)
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[m.shardIndex(key)]
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key and reports whether it replaced an entry.
func (m *Map[V]) Set(key string, value V) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	_, existed := s.items[key]
	s.items[key] = value
	s.mu.Unlock()
	return existed
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	_, ok := s.items[key]
	delete(s.items, key)
	s.mu.Unlock()
	return ok
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Clear removes every entry.
func (m *Map[V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.items = make(map[string]V)
		s.mu.Unlock()
	}
}

// ShardCount returns the number of shards.
func (m *Map[V]) ShardCount() int {
	return len(m.shards)
}

// ShardSizes returns the entry count of every shard, in shard order.
func (m *Map[V]) ShardSizes() []int {
	sizes := make([]int, len(m.shards))
	for i, s := range m.shards {
		s.mu.RLock()
		sizes[i] = len(s.items)
		s.mu.RUnlock()
	}
	return sizes
}
