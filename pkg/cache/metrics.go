package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh reads by store layer ("memory", "redis")
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_cache_hits_total",
			Help: "Total number of fresh offer cache reads",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks reads that found no entry or a stale one
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_cache_misses_total",
			Help: "Total number of offer cache misses, stale entries included",
		},
	)

	// CacheCoalesced tracks callers that waited on another caller's fetch
	CacheCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_cache_coalesced_total",
			Help: "Total number of callers served by an in-flight fetch for the same key",
		},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_cache_errors_total",
			Help: "Total number of offer cache store errors",
		},
		[]string{"operation"}, // "load", "save"
	)
)
