package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/queue"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// Lifecycle lists and cancels bookings.
type Lifecycle struct {
	store  repository.Store
	ledger *Ledger
	events EventPublisher
	log    *logrus.Logger
	now    func() time.Time
}

// NewLifecycle returns a Lifecycle.  events may be nil.
func NewLifecycle(store repository.Store, ledger *Ledger, events EventPublisher, log *logrus.Logger) *Lifecycle {
	return &Lifecycle{store: store, ledger: ledger, events: events, log: log, now: time.Now}
}

// ListForUser returns the caller's bookings with listings populated.
func (m *Lifecycle) ListForUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return m.store.BookingsByUser(ctx, userID)
}

// ListForHost returns the bookings of every listing hosted by hostID.
func (m *Lifecycle) ListForHost(ctx context.Context, hostID uint64) ([]model.BookingDetail, error) {
	return m.store.BookingsByHost(ctx, hostID)
}

// CancelResult describes a completed cancellation.
type CancelResult struct {
	BookingID       uint64 `json:"booking_id"`
	ListingID       uint64 `json:"listing_id"`
	ListingReleased bool   `json:"listing_released"`
}

// Cancel deletes a booking.  The caller must be the guest who booked, the
// listing's host or an admin.  Bookings whose stay has already ended can
// still be cancelled.  The listing is released when no other confirmed
// booking keeps it occupied.
func (m *Lifecycle) Cancel(ctx context.Context, bookingID uint64, by model.Principal) (*CancelResult, error) {
	if bookingID == 0 {
		return nil, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}
	var (
		b   *model.Booking
		res CancelResult
	)
	err := m.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		if b, err = tx.LockBooking(ctx, bookingID); err != nil {
			return err
		}
		l, err := tx.LockListing(ctx, b.ListingID)
		if err != nil {
			return err
		}
		if b.UserID != by.UserID && l.HostID != by.UserID && !by.IsAdmin() {
			return repository.ErrForbidden
		}
		if err := tx.DeleteBooking(ctx, b.ID); err != nil {
			return err
		}
		released, err := m.ledger.Release(ctx, tx, b.ListingID)
		if err != nil {
			return err
		}
		res = CancelResult{BookingID: b.ID, ListingID: b.ListingID, ListingReleased: released}
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrBookingNotFound), errors.Is(err, repository.ErrListingNotFound):
		return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
	case errors.Is(err, repository.ErrForbidden):
		return nil, ErrForbidden
	case err != nil:
		return nil, err
	}

	entry := m.log.WithFields(logrus.Fields{
		"booking_id": res.BookingID,
		"listing_id": res.ListingID,
		"user_id":    by.UserID,
	})
	entry.Info("cancel: booking deleted")

	ev := queue.BookingCancelledEvent{
		EventID:         queue.NewEventID(),
		BookingID:       b.ID,
		ListingID:       b.ListingID,
		UserID:          b.UserID,
		CancelledBy:     by.UserID,
		ListingReleased: res.ListingReleased,
		CancelledAt:     m.now().UTC().Format(time.RFC3339),
	}
	publishAsync(ctx, m.events, entry, func(ctx context.Context, p EventPublisher) error {
		return p.PublishBookingCancelled(ctx, ev)
	})
	return &res, nil
}
