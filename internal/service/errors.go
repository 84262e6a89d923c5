// Package service implements the booking workflow: listing occupancy,
// checkout initiation, payment confirmation and the booking lifecycle.
// Handlers map the errors below to HTTP status codes with errors.Is.
package service

import "errors"

var (
	// ErrInvalidInput covers missing or malformed fields and bad date order.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a listing or booking does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable is returned when the requested stay overlaps a
	// confirmed booking.
	ErrUnavailable = errors.New("listing is not available for the selected dates")
	// ErrPaymentIncomplete is returned when the provider has not collected
	// payment for the session.
	ErrPaymentIncomplete = errors.New("payment not completed")
	// ErrPaymentProvider wraps network or provider failures.  Callers may
	// retry.
	ErrPaymentProvider = errors.New("payment provider unavailable")
	// ErrCorruptSession is returned when a paid session's metadata cannot
	// be turned into a booking.  It is not retryable.
	ErrCorruptSession = errors.New("payment session is corrupt")
)
