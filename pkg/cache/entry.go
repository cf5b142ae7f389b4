package cache

import (
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
)

// CacheEntry holds the offers one supplier returned for one key.
// Entries are read-only once stored and are replaced wholesale on re-fetch.
type CacheEntry struct {
	// Offers are the supplier's offers, already tagged with the supplier id.
	Offers []offer.Offer `json:"offers"`

	// Expires is the instant after which the entry is stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// IsFresh reports whether the entry is still valid at now.
// An entry expiring exactly at now is stale.
func (e *CacheEntry) IsFresh(now time.Time) bool {
	return now.Before(e.Expires)
}

// TTL returns the time left until expiration at now.
// Returns 0 if already expired.
func (e *CacheEntry) TTL(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
