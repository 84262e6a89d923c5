package payment

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Metadata keys attached to every checkout session.
const (
	MetaUserID    = "userId"
	MetaListingID = "listingId"
	MetaCheckIn   = "checkIn"
	MetaCheckOut  = "checkOut"
	MetaGuests    = "guests"
	MetaNights    = "nights"
)

// ErrBadMetadata is returned when a session's metadata cannot be decoded.
var ErrBadMetadata = errors.New("malformed session metadata")

// BookingMetadata is the booking request carried through the provider
// from checkout creation to confirmation.
type BookingMetadata struct {
	UserID    uint64
	ListingID uint64
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    int
	Nights    int
}

// Encode renders m as provider metadata.  Dates are RFC3339 in UTC.
func (m BookingMetadata) Encode() map[string]string {
	return map[string]string{
		MetaUserID:    strconv.FormatUint(m.UserID, 10),
		MetaListingID: strconv.FormatUint(m.ListingID, 10),
		MetaCheckIn:   m.CheckIn.UTC().Format(time.RFC3339),
		MetaCheckOut:  m.CheckOut.UTC().Format(time.RFC3339),
		MetaGuests:    strconv.Itoa(m.Guests),
		MetaNights:    strconv.Itoa(m.Nights),
	}
}

// DecodeBookingMetadata parses metadata written by Encode.  Every key is
// required.
func DecodeBookingMetadata(md map[string]string) (BookingMetadata, error) {
	var m BookingMetadata
	get := func(k string) (string, error) {
		v, ok := md[k]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: missing %s", ErrBadMetadata, k)
		}
		return v, nil
	}
	var (
		v   string
		err error
	)
	if v, err = get(MetaUserID); err != nil {
		return m, err
	}
	if m.UserID, err = strconv.ParseUint(v, 10, 64); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadMetadata, MetaUserID, err)
	}
	if v, err = get(MetaListingID); err != nil {
		return m, err
	}
	if m.ListingID, err = strconv.ParseUint(v, 10, 64); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadMetadata, MetaListingID, err)
	}
	if v, err = get(MetaCheckIn); err != nil {
		return m, err
	}
	if m.CheckIn, err = time.Parse(time.RFC3339, v); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadMetadata, MetaCheckIn, err)
	}
	if v, err = get(MetaCheckOut); err != nil {
		return m, err
	}
	if m.CheckOut, err = time.Parse(time.RFC3339, v); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadMetadata, MetaCheckOut, err)
	}
	if v, err = get(MetaGuests); err != nil {
		return m, err
	}
	if m.Guests, err = strconv.Atoi(v); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadMetadata, MetaGuests, err)
	}
	if v, err = get(MetaNights); err != nil {
		return m, err
	}
	if m.Nights, err = strconv.Atoi(v); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrBadMetadata, MetaNights, err)
	}
	if m.UserID == 0 || m.ListingID == 0 || m.Guests < 1 || m.Nights < 1 || !m.CheckOut.After(m.CheckIn) {
		return m, fmt.Errorf("%w: out of range values", ErrBadMetadata)
	}
	m.CheckIn = m.CheckIn.UTC()
	m.CheckOut = m.CheckOut.UTC()
	return m, nil
}
