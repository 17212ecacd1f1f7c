// Package metrics provides the centralized Prometheus metrics reference
// for the crawler. All metrics are defined in their owning packages
// (client, pipeline, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the crawler.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - crawl_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status ("cached" for cache hits)
//   - crawl_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - crawl_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, parse)
//
// Pipeline Metrics (pkg/pipeline):
//   - crawl_units_total{status} (Counter): Work units merged by terminal status (success, empty, permanent)
//   - crawl_unit_duration_seconds (Histogram): End-to-end unit duration including retries
//   - crawl_retries_total{class} (Counter): Retry attempts by error class
//   - crawl_retry_backoff_seconds{class} (Histogram): Backoff duration by error class
//   - crawl_retry_exhausted_total{class} (Counter): Units that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - crawl_cache_hits_total (Counter): Response cache hits
//   - crawl_cache_misses_total (Counter): Response cache misses
//   - crawl_cache_errors_total{operation} (Counter): Cache operation errors
//
// Cooldown Metrics (pkg/ratelimit):
//   - crawl_cooldown_waits_total (Counter): Requests held back by the cooldown gate
//   - crawl_cooldown_seconds (Gauge): Remaining cooldown at the last gate check
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(crawl_cache_hits_total[5m])) /
//	(sum(rate(crawl_cache_hits_total[5m])) + sum(rate(crawl_cache_misses_total[5m])))
//
//	# Unit Failure Rate
//	rate(crawl_units_total{status="permanent"}[5m]) / rate(crawl_units_total[5m])
//
//	# P95 Request Latency
//	histogram_quantile(0.95, rate(crawl_request_duration_seconds_bucket[5m]))
