// Package cmap provides a sharded, string-keyed concurrent map.
//
// Keys are spread over a power-of-two number of shards with seeded
// murmur3, and each shard has its own RWMutex. Iteration locks one shard
// at a time, so Range sees a consistent view of each shard but not of the
// whole map; callers that need a point-in-time copy must stop writers first.
//
//	m := cmap.New[[]byte](cmap.WithShards(32))
//	m.Set("k", v)
//	v, ok := m.Get("k")
package cmap
