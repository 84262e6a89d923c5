package model

import (
	"testing"
	"time"
)

func TestListingFilterMatches(t *testing.T) {
	l := Listing{
		ID:                 1,
		HostID:             7,
		PricePerNightCents: 10000,
		Location:           Location{City: "Lisbon", Country: "Portugal"},
		PropertyType:       PropertyLoft,
		MaxGuests:          4,
		Amenities:          []string{"WiFi", "Pool "},
	}
	tests := []struct {
		name string
		f    ListingFilter
		want bool
	}{
		{"empty filter", ListingFilter{}, true},
		{"city case insensitive", ListingFilter{City: "lisbon"}, true},
		{"other city", ListingFilter{City: "Porto"}, false},
		{"country", ListingFilter{Country: "PORTUGAL"}, true},
		{"property type", ListingFilter{PropertyType: PropertyLoft}, true},
		{"wrong property type", ListingFilter{PropertyType: PropertyCabin}, false},
		{"price in range", ListingFilter{MinPrice: 5000, MaxPrice: 10000}, true},
		{"price below min", ListingFilter{MinPrice: 10001}, false},
		{"price above max", ListingFilter{MaxPrice: 9999}, false},
		{"guests fit", ListingFilter{Guests: 4}, true},
		{"too many guests", ListingFilter{Guests: 5}, false},
		{"amenities", ListingFilter{Amenities: []string{"wifi", "pool"}}, true},
		{"missing amenity", ListingFilter{Amenities: []string{"sauna"}}, false},
		{"host", ListingFilter{HostID: 7}, true},
		{"other host", ListingFilter{HostID: 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Matches(&l); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListingFilterApplyKeepsOrder(t *testing.T) {
	in := []Listing{
		{ID: 1, PropertyType: PropertyHouse},
		{ID: 2, PropertyType: PropertyCabin},
		{ID: 3, PropertyType: PropertyHouse},
	}
	out := ListingFilter{PropertyType: PropertyHouse}.Apply(in)
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 3 {
		t.Fatalf("Apply() = %+v", out)
	}
}

func TestBookingActiveAndOverlap(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	b := Booking{
		Status:   BookingConfirmed,
		CheckIn:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	if !b.ActiveAt(now) {
		t.Error("expected booking to be active before check-out")
	}
	if b.ActiveAt(b.CheckOut) {
		t.Error("booking must not be active at its check-out instant")
	}
	pending := b
	pending.Status = BookingPending
	if pending.ActiveAt(now) {
		t.Error("pending booking must not count as active")
	}
	// back-to-back stays do not overlap
	if b.Overlaps(b.CheckOut, b.CheckOut.AddDate(0, 0, 2)) {
		t.Error("stay starting on check-out day must not overlap")
	}
	if !b.Overlaps(b.CheckIn.AddDate(0, 0, 1), b.CheckOut.AddDate(0, 0, 1)) {
		t.Error("expected overlap")
	}
}

func TestPropertyTypeValid(t *testing.T) {
	if !PropertyVilla.Valid() {
		t.Error("Villa should be valid")
	}
	if PropertyType("Castle").Valid() {
		t.Error("Castle should be invalid")
	}
}
