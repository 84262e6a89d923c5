package model

import "time"

// Booking statuses.  Only BookingConfirmed is ever written by the payment
// confirmation path; pending is the schema default and cancelled is kept
// for schema compatibility since cancellation deletes the row.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking records a paid stay of a user at a listing.  One booking exists
// per payment session; SessionID carries a unique key in the database.
//
// Fields:
//  ID              – primary key identifier.
//  ListingID       – listing being booked.
//  UserID          – guest who paid.
//  CheckIn         – arrival date (UTC).
//  CheckOut        – departure date (UTC), strictly after CheckIn.
//  Guests          – number of guests.
//  TotalNights     – whole nights between CheckIn and CheckOut.
//  TotalPriceCents – amount charged by the payment provider.
//  SessionID       – payment provider checkout session identifier.
//  Status          – pending, confirmed or cancelled.
type Booking struct {
	ID              uint64    `json:"id"`                // bookings.id
	ListingID       uint64    `json:"listing_id"`        // bookings.listing_id
	UserID          uint64    `json:"user_id"`           // bookings.user_id
	CheckIn         time.Time `json:"check_in"`          // bookings.check_in
	CheckOut        time.Time `json:"check_out"`         // bookings.check_out
	Guests          int       `json:"guests"`            // bookings.guests
	TotalNights     int       `json:"total_nights"`      // bookings.total_nights
	TotalPriceCents int64     `json:"total_price_cents"` // bookings.total_price_cents
	SessionID       string    `json:"session_id"`        // bookings.session_id (unique)
	Status          string    `json:"status"`            // bookings.status
	CreatedAt       time.Time `json:"created_at"`        // bookings.created_at
}

// ActiveAt reports whether the booking still holds the listing at now.
func (b *Booking) ActiveAt(now time.Time) bool {
	return b.Status == BookingConfirmed && b.CheckOut.After(now)
}

// Overlaps reports whether the booking's stay intersects [checkIn, checkOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}

// BookingDetail is a booking with its listing populated.  It is returned
// by the guest and host booking lists.
type BookingDetail struct {
	Booking
	Listing Listing `json:"listing"`
}
