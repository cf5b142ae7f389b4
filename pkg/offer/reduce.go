package offer

// Reduce keeps the cheapest offer per property.
//
// Properties appear in the order they are first seen in offers. When two
// offers for the same property have the same price the earlier one wins, so
// the result is fully determined by the input order.
func Reduce(offers []Offer) []Offer {
	index := make(map[string]int, len(offers))
	best := make([]Offer, 0, len(offers))

	for _, o := range offers {
		i, seen := index[o.Property]
		if !seen {
			index[o.Property] = len(best)
			best = append(best, o)
			continue
		}
		if o.Price < best[i].Price {
			best[i] = o
		}
	}

	return best
}
