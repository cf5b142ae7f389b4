// Package metrics provides centralized Prometheus metrics registry for the gateway.
// All metrics are defined in their respective packages (cache, supplier, aggregator,
// api) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the gateway.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry read by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving all registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - offer_cache_hits_total{layer} (Counter): Fresh reads by store layer (memory, redis)
//   - offer_cache_misses_total (Counter): Absent or stale reads
//   - offer_cache_coalesced_total (Counter): Callers served by another caller's in-flight fetch
//   - offer_cache_errors_total{operation} (Counter): Store errors (load, save)
//
// Supplier Metrics (pkg/supplier):
//   - supplier_requests_total{supplier, status} (Counter): Requests by upstream host and status
//   - supplier_request_duration_seconds{supplier} (Histogram): Request duration by upstream host
//   - supplier_errors_total{class} (Counter): Errors by class (network, timeout, client, server)
//
// Aggregation Metrics (pkg/aggregator):
//   - aggregator_requests_total{outcome} (Counter): Aggregations by outcome (ok, partial, failed, empty)
//   - aggregator_supplier_failures_total{supplier} (Counter): Suppliers excluded from a result
//
// HTTP Metrics (internal/api):
//   - http_requests_total{method, route, status} (Counter): Inbound requests
//   - http_request_duration_seconds{method, route} (Histogram): Inbound request duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(offer_cache_hits_total[5m])) /
//   (sum(rate(offer_cache_hits_total[5m])) + sum(rate(offer_cache_misses_total[5m])))
//
//   # Upstream calls saved by single-flight
//   rate(offer_cache_coalesced_total[5m])
//
//   # Supplier Error Rate
//   sum by (class) (rate(supplier_errors_total[5m]))
//
//   # P95 Supplier Latency
//   histogram_quantile(0.95, rate(supplier_request_duration_seconds_bucket[5m]))
