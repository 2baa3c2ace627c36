// Package cache stores upstream GraphQL responses in Redis.
//
// Entries are keyed by endpoint name, operation name, a hash of the query
// document and the sorted query variables, so two pages asking the same
// endpoint for the same window share one entry. Every entry carries its own
// expiry: list pages are cached for about one poll interval, immutable
// lookups (a block by hash) for longer.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint:  "main",
//		Operation: "BlockList",
//		Query:     query,
//		Variables: map[string]any{"offset": 25, "limit": 25},
//	}
//
//	data, cached, err := manager.Fetch(ctx, key, 2*time.Second, func(ctx context.Context) ([]byte, error) {
//		return fetchFromEndpoint(ctx)
//	})
//
// Concurrent misses of the same key share one load, so many live pages
// polling the same window cost one upstream request per poll.
//
// # Metrics
//
//   - explorer_cache_hits_total - Cache hits
//   - explorer_cache_misses_total - Cache misses
//   - explorer_cache_shared_loads_total - Misses served by an in-flight load
//   - explorer_cache_stored_bytes_total - Bytes written to the cache
//   - explorer_cache_errors_total{operation} - Cache operation errors
package cache
