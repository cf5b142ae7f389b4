package supplier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
)

// offerPayload is one element of a supplier response.
type offerPayload struct {
	Property string   `json:"property"`
	Price    *float64 `json:"price"`
}

// ParseOffers decodes a supplier response body.
//
// The body must be a JSON array of {"property": string, "price": number}.
// Elements without a property, without a price, or with a negative price are
// skipped. The returned offers carry no supplier id.
func ParseOffers(body []byte) ([]offer.Offer, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
	}

	var payload []offerPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	offers := make([]offer.Offer, 0, len(payload))
	for _, p := range payload {
		if p.Property == "" || p.Price == nil || *p.Price < 0 || math.IsNaN(*p.Price) {
			continue
		}
		offers = append(offers, offer.Offer{
			Property: p.Property,
			Price:    *p.Price,
		})
	}

	return offers, nil
}
