package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/payment"
	"github.com/iliyamo/rental-booking/internal/queue"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// Confirmer turns paid checkout sessions into bookings.  Confirming a
// session is idempotent: every call for the same session returns the same
// booking, including concurrent calls.
type Confirmer struct {
	store    repository.Store
	provider payment.Provider
	ledger   *Ledger
	events   EventPublisher
	log      *logrus.Logger
	now      func() time.Time
}

// NewConfirmer returns a Confirmer.  events may be nil.
func NewConfirmer(store repository.Store, provider payment.Provider, ledger *Ledger, events EventPublisher, log *logrus.Logger) *Confirmer {
	return &Confirmer{store: store, provider: provider, ledger: ledger, events: events, log: log, now: time.Now}
}

// Confirm verifies sessionID with the provider and records the booking.
// payerID is the authenticated caller; when non-zero it must match the
// user the session was opened for.  Webhook deliveries pass 0.
func (c *Confirmer) Confirm(ctx context.Context, sessionID string, payerID uint64) (*model.Booking, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	entry := c.log.WithField("session_id", sessionID)

	if b, err := c.store.BookingBySession(ctx, sessionID); err == nil {
		if payerID != 0 && b.UserID != payerID {
			return nil, ErrForbidden
		}
		return b, nil
	} else if !errors.Is(err, repository.ErrBookingNotFound) {
		return nil, err
	}

	s, err := c.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		entry.WithError(err).Warn("confirm: provider lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	if !s.Paid() {
		return nil, ErrPaymentIncomplete
	}
	meta, err := payment.DecodeBookingMetadata(s.Metadata)
	if err != nil {
		entry.WithError(err).WithField("metadata", s.Metadata).Error("confirm: paid session has corrupt metadata")
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if s.AmountTotal <= 0 {
		entry.WithField("amount_total", s.AmountTotal).Error("confirm: paid session has no amount")
		return nil, fmt.Errorf("%w: missing amount", ErrCorruptSession)
	}
	if payerID != 0 && meta.UserID != payerID {
		return nil, ErrForbidden
	}

	b := &model.Booking{
		ListingID:       meta.ListingID,
		UserID:          meta.UserID,
		CheckIn:         meta.CheckIn,
		CheckOut:        meta.CheckOut,
		Guests:          meta.Guests,
		TotalNights:     meta.Nights,
		TotalPriceCents: s.AmountTotal,
		SessionID:       sessionID,
		Status:          model.BookingConfirmed,
	}
	var listing *model.Listing
	err = c.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		if listing, err = tx.LockListing(ctx, meta.ListingID); err != nil {
			return err
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		return c.ledger.MarkOccupied(ctx, tx, meta.ListingID)
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateSession):
		// Lost the race to a concurrent confirmation; return the winner.
		winner, err := c.store.BookingBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		entry.WithField("booking_id", winner.ID).Info("confirm: session already confirmed")
		return winner, nil
	case errors.Is(err, repository.ErrListingNotFound):
		entry.WithField("listing_id", meta.ListingID).Error("confirm: paid session references a missing listing")
		return nil, fmt.Errorf("%w: listing %d", ErrNotFound, meta.ListingID)
	case err != nil:
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"listing_id": b.ListingID,
		"user_id":    b.UserID,
	}).Info("confirm: booking created")

	ev := queue.BookingConfirmedEvent{
		EventID:         queue.NewEventID(),
		BookingID:       b.ID,
		ListingID:       b.ListingID,
		ListingTitle:    listing.Title,
		HostID:          listing.HostID,
		UserID:          b.UserID,
		CheckIn:         b.CheckIn.Format(dateLayout),
		CheckOut:        b.CheckOut.Format(dateLayout),
		Guests:          b.Guests,
		Nights:          b.TotalNights,
		TotalPriceCents: b.TotalPriceCents,
		SessionID:       b.SessionID,
		ConfirmedAt:     c.now().UTC().Format(time.RFC3339),
	}
	publishAsync(ctx, c.events, entry, func(ctx context.Context, p EventPublisher) error {
		return p.PublishBookingConfirmed(ctx, ev)
	})
	return b, nil
}

// HandleWebhook verifies a provider notification and confirms the session
// it completes.  Events of other types are ignored and return nil.
func (c *Confirmer) HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.Booking, error) {
	ev, err := c.provider.ParseWebhook(payload, signature)
	if err != nil {
		// The provider's verification detail stays in the log.
		c.log.WithError(err).Warn("webhook: rejected event")
		return nil, fmt.Errorf("%w: invalid webhook signature", ErrInvalidInput)
	}
	if ev.Type != payment.EventCheckoutCompleted || ev.Session == nil {
		c.log.WithField("event_type", ev.Type).Debug("webhook: ignored event")
		return nil, nil
	}
	return c.Confirm(ctx, ev.Session.ID, 0)
}
