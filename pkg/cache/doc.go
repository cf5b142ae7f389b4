// Package cache provides the TTL cache of supplier offers.
//
// One entry holds the offers a single supplier returned for one stay search.
// The manager implements:
//
// - Deterministic cache key derivation from stay parameters and supplier id
// - Lazy expiry (a stale entry is treated as absent, never purged in the background)
// - Per-key single-flight fetching so concurrent misses call upstream once
// - Pluggable storage: sharded in-process memory or shared Redis
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create an in-process store and a manager with a 5 minute TTL
//	manager := cache.NewManager(cache.NewMemoryStore(cache.DefaultShards), cache.DefaultConfig())
//
//	// Derive the key for one supplier of a request
//	key := cache.DeriveKey(req, "supplier1")
//
//	// Get from cache
//	offers, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from supplier
//	}
//
// # Single-Flight Fetching
//
//	offers, outcome, err := manager.GetOrFetch(ctx, key, func(ctx context.Context) ([]offer.Offer, error) {
//		return fetchFromSupplier(ctx, url)
//	})
//
// Callers that miss while a fetch for the same key is running wait for it
// instead of starting their own. A failed fetch is not cached.
//
// # Shared Redis Backend
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedisStore(redisClient, "hotel-offer-gateway:")
//	manager := cache.NewManager(store, cache.Config{TTL: 5 * time.Minute, Layer: "redis"})
//
// Single-flight coalescing is per process; Redis only shares stored results.
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - offer_cache_hits_total{layer} - Fresh reads
//   - offer_cache_misses_total - Absent or stale reads
//   - offer_cache_coalesced_total - Callers served by another caller's fetch
//   - offer_cache_errors_total{operation} - Store errors
package cache
