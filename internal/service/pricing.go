package service

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate accepts a calendar date (2006-01-02) or an RFC3339 timestamp
// and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, s)
	}
	return t.UTC(), nil
}

// Quote is the price of a stay.  The provider line item charges
// UnitAmountCents per unit for Quantity units, so
// TotalCents == UnitAmountCents * Quantity.
type Quote struct {
	Nights          int
	Guests          int
	UnitAmountCents int64
	Quantity        int64
	TotalCents      int64
}

// zeroDecimal lists the currencies the provider charges without a minor
// unit.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MajorUnits converts an amount in minor units of currency to major units,
// e.g. 60000 usd cents to 600.
func MajorUnits(amount int64, currency string) float64 {
	if zeroDecimal[strings.ToLower(currency)] {
		return float64(amount)
	}
	return float64(amount) / 100
}

// NewQuote prices a stay at pricePerNightCents per night per guest.
// Nights are whole days rounded up; a stay must span at least one.
func NewQuote(pricePerNightCents int64, checkIn, checkOut time.Time, guests int) (Quote, error) {
	if pricePerNightCents <= 0 {
		return Quote{}, fmt.Errorf("%w: listing has no price", ErrInvalidInput)
	}
	if guests < 1 {
		return Quote{}, fmt.Errorf("%w: guests must be at least 1", ErrInvalidInput)
	}
	if !checkOut.After(checkIn) {
		return Quote{}, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidInput)
	}
	nights := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	if nights <= 0 {
		return Quote{}, fmt.Errorf("%w: stay must be at least one night", ErrInvalidInput)
	}
	qty := int64(nights) * int64(guests)
	return Quote{
		Nights:          nights,
		Guests:          guests,
		UnitAmountCents: pricePerNightCents,
		Quantity:        qty,
		TotalCents:      pricePerNightCents * qty,
	}, nil
}
