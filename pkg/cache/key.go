package cache

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
)

// CacheKey identifies the cached offers of one supplier for one stay shape.
type CacheKey struct {
	// CheckIn and CheckOut are compared at day granularity.
	CheckIn  time.Time
	CheckOut time.Time

	// Destination is used verbatim; callers normalise it before building the request.
	Destination string

	// Guests is the number of guests.
	Guests int

	// SupplierID is the supplier the entry belongs to.
	SupplierID string
}

// DeriveKey builds the cache key for req as served by supplierID.
func DeriveKey(req offer.StayRequest, supplierID string) CacheKey {
	return CacheKey{
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Destination: req.Destination,
		Guests:      req.Guests,
		SupplierID:  supplierID,
	}
}

// String generates a deterministic cache key string.
// Format: offers:checkin:checkout:destination:guests:supplier
//
// Free-text fields are query-escaped so ':' never occurs inside a field and
// distinct field combinations cannot produce the same string.
//
// Example:
//
//	offers:2011-12-11:2018-12-01:istanbul:2:supplier1
func (k CacheKey) String() string {
	parts := []string{
		"offers",
		k.CheckIn.Format(offer.DateLayout),
		k.CheckOut.Format(offer.DateLayout),
		url.QueryEscape(k.Destination),
		strconv.Itoa(k.Guests),
		url.QueryEscape(k.SupplierID),
	}

	return strings.Join(parts, ":")
}
