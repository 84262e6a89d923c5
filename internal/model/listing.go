package model

import (
	"strings"
	"time"
)

// PropertyType enumerates the kinds of property a host can list.
type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyHouse     PropertyType = "House"
	PropertyCondo     PropertyType = "Condo"
	PropertyVilla     PropertyType = "Villa"
	PropertyCottage   PropertyType = "Cottage"
	PropertyTownhouse PropertyType = "Townhouse"
	PropertyLoft      PropertyType = "Loft"
	PropertyStudio    PropertyType = "Studio"
	PropertyBungalow  PropertyType = "Bungalow"
	PropertyCabin     PropertyType = "Cabin"
)

var propertyTypes = map[PropertyType]bool{
	PropertyApartment: true, PropertyHouse: true, PropertyCondo: true,
	PropertyVilla: true, PropertyCottage: true, PropertyTownhouse: true,
	PropertyLoft: true, PropertyStudio: true, PropertyBungalow: true,
	PropertyCabin: true,
}

// Valid reports whether p is one of the known property types.
func (p PropertyType) Valid() bool { return propertyTypes[p] }

// Location is the postal address of a listing.  It is persisted as a
// JSON document in listings.location.
type Location struct {
	StreetAddress string `json:"streetAddress"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	Country       string `json:"country"`
}

// Listing represents a rentable property published by a host.
// It corresponds to a row in the `listings` table.
//
// Fields:
//  ID                 – primary key identifier.
//  HostID             – user ID of the host; never changes after creation.
//  PricePerNightCents – nightly price in minor currency units (> 0).
//  Amenities          – set of amenity names (stored as a JSON array).
//  Images             – ordered image URLs (stored as a JSON array).
//  AvailableDates     – dates the host advertises as bookable.
//  Occupied           – cached occupancy flag.  Ground truth is the set of
//                       confirmed bookings; see service.Ledger.
type Listing struct {
	ID                 uint64       `json:"id"`                    // listings.id
	HostID             uint64       `json:"host_id"`               // listings.host_id
	Title              string       `json:"title"`                 // listings.title
	Description        string       `json:"description"`           // listings.description
	PricePerNightCents int64        `json:"price_per_night_cents"` // listings.price_per_night_cents
	Location           Location     `json:"location"`              // listings.location (JSON)
	PropertyType       PropertyType `json:"property_type"`         // listings.property_type
	MaxGuests          int          `json:"max_guests"`            // listings.max_guests
	NumBedrooms        int          `json:"num_bedrooms"`          // listings.num_bedrooms
	NumBathrooms       int          `json:"num_bathrooms"`         // listings.num_bathrooms
	Amenities          []string     `json:"amenities"`             // listings.amenities (JSON)
	Images             []string     `json:"images"`                // listings.images (JSON)
	AvailableDates     []time.Time  `json:"available_dates"`       // listings.available_dates (JSON)
	Occupied           bool         `json:"occupied"`              // listings.occupied
	CreatedAt          time.Time    `json:"created_at"`            // listings.created_at
	UpdatedAt          time.Time    `json:"updated_at"`            // listings.updated_at
}

// HasAmenity reports whether the listing offers the named amenity.  The
// comparison ignores case and surrounding whitespace.
func (l *Listing) HasAmenity(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range l.Amenities {
		if strings.ToLower(strings.TrimSpace(a)) == name {
			return true
		}
	}
	return false
}

// FirstImage returns the cover image URL or "" when the listing has none.
func (l *Listing) FirstImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// ListingFilter holds the optional criteria accepted by GET /listings.
// Zero values mean "no constraint".
type ListingFilter struct {
	City         string
	Country      string
	PropertyType PropertyType
	MinPrice     int64 // cents
	MaxPrice     int64 // cents
	Guests       int
	Amenities    []string
	HostID       uint64
}

// Matches reports whether l satisfies every non-zero criterion of f.
func (f ListingFilter) Matches(l *Listing) bool {
	if f.City != "" && !strings.EqualFold(strings.TrimSpace(l.Location.City), strings.TrimSpace(f.City)) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(strings.TrimSpace(l.Location.Country), strings.TrimSpace(f.Country)) {
		return false
	}
	if f.PropertyType != "" && l.PropertyType != f.PropertyType {
		return false
	}
	if f.MinPrice > 0 && l.PricePerNightCents < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.PricePerNightCents > f.MaxPrice {
		return false
	}
	if f.Guests > 0 && l.MaxGuests > 0 && l.MaxGuests < f.Guests {
		return false
	}
	if f.HostID != 0 && l.HostID != f.HostID {
		return false
	}
	for _, a := range f.Amenities {
		if !l.HasAmenity(a) {
			return false
		}
	}
	return true
}

// Apply returns the listings that match f, preserving order.
func (f ListingFilter) Apply(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for i := range listings {
		if f.Matches(&listings[i]) {
			out = append(out, listings[i])
		}
	}
	return out
}
