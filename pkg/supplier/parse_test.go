package supplier

import (
	"errors"
	"testing"

	"github.com/Sternrassler/hotel-offer-gateway/internal/testutil"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/offer"
)

func TestParseOffers(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []offer.Offer
		wantErr bool
	}{
		{
			name: "supplier response",
			body: testutil.Supplier1Offers,
			want: []offer.Offer{
				{Property: "One", Price: 304.2},
				{Property: "Two", Price: 400.22},
				{Property: "Three", Price: 299.3},
			},
		},
		{
			name: "empty array",
			body: `[]`,
			want: []offer.Offer{},
		},
		{
			name: "surrounding whitespace",
			body: "\n  [{\"property\":\"A\",\"price\":1}]  \n",
			want: []offer.Offer{{Property: "A", Price: 1}},
		},
		{
			name: "invalid elements skipped",
			body: `[{"property":"","price":1},{"property":"B"},{"property":"C","price":-1},{"property":"D","price":0}]`,
			want: []offer.Offer{{Property: "D", Price: 0}},
		},
		{
			name: "unknown fields ignored",
			body: `[{"property":"A","price":5,"currency":"EUR"}]`,
			want: []offer.Offer{{Property: "A", Price: 5}},
		},
		{name: "object", body: `{"property":"A","price":1}`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "truncated", body: `[{"property":"A"`, wantErr: true},
		{name: "wrong price type", body: `[{"property":"A","price":"cheap"}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffers([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("Expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOffers() error = %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d offers, got %d (%+v)", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Offer %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
