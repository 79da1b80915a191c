// Package cache provides a generic, thread-safe LRU cache.
//
// Once the configured capacity is exceeded the least recently used entry is
// evicted. An optional evict callback, run outside the cache lock, lets
// callers release resources held by evicted values:
//
//	flows := cache.NewLRU[string, *Flow](1000,
//		cache.WithEvictCallback(func(_ string, f *Flow) { f.Close() }),
//	)
//	flow, err := flows.GetOrCreate(userID, func() (*Flow, error) {
//		return newFlow(userID)
//	})
//
// All operations are O(1) except Keys and Clear.
package cache
