package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
)

// ValidationError is a rejected query parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query '%s' %s", e.Param, e.Reason)
}

// SupplierSelector resolves supplier ids to upstream URLs.
// A nil ids slice selects every known supplier; unknown ids are ignored.
type SupplierSelector interface {
	Select(ids []string) map[string]string
}

// parseStayRequest validates the /api/hotels query and resolves the supplier set.
func parseStayRequest(q url.Values, suppliers SupplierSelector) (offer.StayRequest, error) {
	checkIn, err := requiredDate(q, "checkin")
	if err != nil {
		return offer.StayRequest{}, err
	}
	checkOut, err := requiredDate(q, "checkout")
	if err != nil {
		return offer.StayRequest{}, err
	}
	if !checkOut.After(checkIn) {
		return offer.StayRequest{}, &ValidationError{Param: "checkout", Reason: "must be after 'checkin'"}
	}

	destination := strings.TrimSpace(q.Get("destination"))
	if destination == "" {
		return offer.StayRequest{}, &ValidationError{Param: "destination", Reason: "is required"}
	}

	rawGuests := strings.TrimSpace(q.Get("guests"))
	if rawGuests == "" {
		return offer.StayRequest{}, &ValidationError{Param: "guests", Reason: "is required"}
	}
	guests, err := strconv.Atoi(rawGuests)
	if err != nil || guests <= 0 {
		return offer.StayRequest{}, &ValidationError{Param: "guests", Reason: "must be a positive integer"}
	}

	return offer.StayRequest{
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Destination: destination,
		Guests:      guests,
		Suppliers:   suppliers.Select(supplierIDs(q)),
	}, nil
}

func requiredDate(q url.Values, param string) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(param))
	if raw == "" {
		return time.Time{}, &ValidationError{Param: param, Reason: "is required"}
	}

	t, err := time.Parse(offer.DateLayout, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Param: param, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

// supplierIDs splits the optional suppliers parameter. It returns nil when
// the parameter is absent and a possibly empty, de-duplicated list otherwise.
func supplierIDs(q url.Values) []string {
	if !q.Has("suppliers") {
		return nil
	}

	ids := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(q.Get("suppliers"), ",") {
		id := strings.TrimSpace(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
