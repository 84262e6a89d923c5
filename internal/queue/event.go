// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

import "github.com/google/uuid"

// Queue names.  Both queues are durable.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published after a paid checkout session has been
// turned into a booking.  It carries enough to log or notify without
// querying the primary database.
type BookingConfirmedEvent struct {
	EventID         string `json:"event_id"`
	BookingID       uint64 `json:"booking_id"`
	ListingID       uint64 `json:"listing_id"`
	ListingTitle    string `json:"listing_title"`
	HostID          uint64 `json:"host_id"`
	UserID          uint64 `json:"user_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	Nights          int    `json:"nights"`
	TotalPriceCents int64  `json:"total_price_cents"`
	SessionID       string `json:"session_id"`
	ConfirmedAt     string `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a booking has been deleted.
// ListingReleased is true when the cancellation cleared the listing's
// occupied flag.
type BookingCancelledEvent struct {
	EventID         string `json:"event_id"`
	BookingID       uint64 `json:"booking_id"`
	ListingID       uint64 `json:"listing_id"`
	UserID          uint64 `json:"user_id"`
	CancelledBy     uint64 `json:"cancelled_by"`
	ListingReleased bool   `json:"listing_released"`
	CancelledAt     string `json:"cancelled_at"`
}

// NewEventID returns a random identifier for an event.  Consumers may use
// it to drop redeliveries.
func NewEventID() string { return uuid.NewString() }
