// Package metrics exposes the explorer's Prometheus metrics. Metrics are
// declared with promauto in the packages that record them (endpoint,
// graphql, cache, ratelimit, web) and registered on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every explorer metric lands on.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Endpoint resolution (pkg/endpoint):
//   - explorer_endpoint_fallbacks_total (Counter): unknown endpoint names served by the default
//
// Upstream requests (pkg/graphql):
//   - explorer_graphql_requests_total{endpoint, status} (Counter)
//   - explorer_graphql_request_duration_seconds{endpoint} (Histogram)
//   - explorer_graphql_errors_total{class} (Counter)
//   - explorer_graphql_retries_total{error_class} (Counter)
//   - explorer_graphql_retry_backoff_seconds{error_class} (Histogram)
//   - explorer_graphql_retry_exhausted_total{error_class} (Counter)
//
// Response cache (pkg/cache):
//   - explorer_cache_hits_total{endpoint}, explorer_cache_misses_total{endpoint} (Counter)
//   - explorer_cache_stored_bytes_total (Counter)
//   - explorer_cache_errors_total{operation} (Counter)
//
// Error budget (pkg/ratelimit):
//   - explorer_upstream_failures{endpoint} (Gauge): failures in the current window
//   - explorer_budget_blocks_total{endpoint} (Counter)
//   - explorer_budget_throttles_total{endpoint} (Counter)
//
// Pages (pkg/web):
//   - explorer_page_requests_total{page} (Counter)
//   - explorer_page_duration_seconds{page} (Histogram)
//   - explorer_page_fetch_errors_total{page, list} (Counter): lists rendered with an inline error
//   - explorer_live_connections (Gauge)
//   - explorer_live_ticks_skipped_total (Counter)
//
// Example queries:
//
//	# Cache hit rate
//	sum(rate(explorer_cache_hits_total[5m])) /
//	(sum(rate(explorer_cache_hits_total[5m])) + sum(rate(explorer_cache_misses_total[5m])))
//
//	# Endpoints close to their error budget
//	explorer_upstream_failures > 5
//
//	# P95 upstream latency per endpoint
//	histogram_quantile(0.95, sum by (endpoint, le) (rate(explorer_graphql_request_duration_seconds_bucket[5m])))
