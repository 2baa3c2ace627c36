package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by endpoint name.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_cache_hits_total",
			Help: "Total number of GraphQL response cache hits",
		},
		[]string{"endpoint"},
	)

	// CacheMisses tracks cache misses by endpoint name.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_cache_misses_total",
			Help: "Total number of GraphQL response cache misses",
		},
		[]string{"endpoint"},
	)

	// CacheSharedLoads tracks misses served by another caller's load.
	CacheSharedLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_cache_shared_loads_total",
			Help: "Cache misses that shared an in-flight upstream load",
		},
		[]string{"endpoint"},
	)

	// CacheStoredBytes tracks bytes written to the cache.
	CacheStoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_cache_stored_bytes_total",
			Help: "Total bytes of GraphQL responses written to the cache",
		},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)
)
