package cmap

import "sort"

// Range calls fn for every entry until fn returns false. fn must not call
// back into the map's write methods.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns every key in ascending order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return keys
}

// Entry is a key/value pair.
type Entry[V any] struct {
	Key   string
	Value V
}

// Entries returns every entry sorted by key.
func (m *Map[V]) Entries() []Entry[V] {
	out := make([]Entry[V], 0, m.Len())
	m.Range(func(k string, v V) bool {
		out = append(out, Entry[V]{Key: k, Value: v})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Replace swaps the whole content for entries. Each shard is rebuilt off
// lock and then swapped in, so readers never see a half-filled shard.
func (m *Map[V]) Replace(entries []Entry[V]) {
	fresh := make([]map[string]V, len(m.shards))
	for i := range fresh {
		fresh[i] = make(map[string]V)
	}
	for _, e := range entries {
		fresh[m.shardIndex(e.Key)][e.Key] = e.Value
	}
	for i, s := range m.shards {
		s.mu.Lock()
		s.items = fresh[i]
		s.mu.Unlock()
	}
}
