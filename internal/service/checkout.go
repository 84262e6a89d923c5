package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/payment"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// CheckoutRequest is a guest's request to pay for a stay.
type CheckoutRequest struct {
	ListingID uint64
	CheckIn   string
	CheckOut  string
	Guests    int
	UserID    uint64
}

// CheckoutResult is returned to the client so it can redirect to the
// provider's hosted page.
type CheckoutResult struct {
	SessionID        string `json:"session_id"`
	URL              string `json:"url"`
	TotalAmountCents int64   `json:"total_amount_cents"`
	TotalAmount      float64 `json:"total_amount"` // in major units of Currency
	Currency         string  `json:"currency"`
	Nights           int     `json:"nights"`
}

// Checkout opens provider checkout sessions.  The booking intent is
// carried only in the session metadata; nothing is written locally until
// the payment is confirmed.
type Checkout struct {
	store     repository.Store
	provider  payment.Provider
	currency  string
	clientURL string
	log       *logrus.Logger
}

// NewCheckout returns a Checkout charging in currency and redirecting to
// clientURL after payment.
func NewCheckout(store repository.Store, provider payment.Provider, currency, clientURL string, log *logrus.Logger) *Checkout {
	return &Checkout{store: store, provider: provider, currency: currency, clientURL: clientURL, log: log}
}

// Initiate validates req, prices the stay and opens a provider session.
// All validation happens before the provider is called.
func (c *Checkout) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.ListingID == 0 || req.UserID == 0 {
		return nil, fmt.Errorf("%w: listing and user are required", ErrInvalidInput)
	}
	if req.Guests < 1 {
		return nil, fmt.Errorf("%w: guests must be at least 1", ErrInvalidInput)
	}
	checkIn, err := ParseDate(req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := ParseDate(req.CheckOut)
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidInput)
	}

	listing, err := c.store.GetListing(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, req.ListingID)
		}
		return nil, err
	}
	if listing.MaxGuests > 0 && req.Guests > listing.MaxGuests {
		return nil, fmt.Errorf("%w: listing accepts at most %d guests", ErrInvalidInput, listing.MaxGuests)
	}
	q, err := NewQuote(listing.PricePerNightCents, checkIn, checkOut, req.Guests)
	if err != nil {
		return nil, err
	}

	overlap, err := c.store.HasOverlap(ctx, listing.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrUnavailable
	}

	meta := payment.BookingMetadata{
		UserID:    req.UserID,
		ListingID: listing.ID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    req.Guests,
		Nights:    q.Nights,
	}
	s, err := c.provider.CreateSession(ctx, payment.SessionRequest{
		ProductName:     listing.Title,
		Description:     listing.Description,
		ImageURL:        listing.FirstImage(),
		Currency:        c.currency,
		UnitAmountCents: q.UnitAmountCents,
		Quantity:        q.Quantity,
		Metadata:        meta.Encode(),
		SuccessURL:      c.clientURL + "/booking-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       c.clientURL + "/booking-cancel",
	})
	if err != nil {
		c.log.WithError(err).WithField("listing_id", listing.ID).Warn("checkout: create session failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	c.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"listing_id": listing.ID,
		"user_id":    req.UserID,
		"total":      q.TotalCents,
	}).Info("checkout: session created")
	return &CheckoutResult{
		SessionID:        s.ID,
		URL:              s.URL,
		TotalAmountCents: q.TotalCents,
		TotalAmount:      MajorUnits(q.TotalCents, c.currency),
		Currency:         c.currency,
		Nights:           q.Nights,
	}, nil
}
