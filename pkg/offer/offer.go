// Package offer holds the domain values exchanged between the gateway's
// cache, supplier and aggregation layers.
package offer

import (
	"sort"
	"time"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

// Offer is one supplier's price for one property.
type Offer struct {
	// Property is the supplier-independent property identifier.
	Property string `json:"property"`

	// Price is the quoted price. Currency is implicit and uniform across suppliers.
	Price float64 `json:"price"`

	// SupplierID identifies the supplier that produced the offer.
	// Suppliers never send it; the aggregator fills it in.
	SupplierID string `json:"supplierId"`
}

// StayRequest is a validated search for one stay.
// It is built once per inbound request and never mutated afterwards.
type StayRequest struct {
	CheckIn     time.Time
	CheckOut    time.Time
	Destination string
	Guests      int

	// Suppliers maps supplier identifier to its upstream URL.
	Suppliers map[string]string
}

// SupplierIDs returns the requested supplier identifiers in lexicographic order.
// Aggregation relies on this order for deterministic tie-breaking.
func (r StayRequest) SupplierIDs() []string {
	ids := make([]string, 0, len(r.Suppliers))
	for id := range r.Suppliers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tag returns a copy of offers with SupplierID set to supplierID.
func Tag(offers []Offer, supplierID string) []Offer {
	tagged := make([]Offer, len(offers))
	for i, o := range offers {
		o.SupplierID = supplierID
		tagged[i] = o
	}
	return tagged
}
