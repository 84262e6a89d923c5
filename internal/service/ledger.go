package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// Ledger keeps the cached Listing.Occupied flag in line with bookings.
// The flag is a projection: it is set when a booking is confirmed, cleared
// on cancellation when nothing else is active, and cleared lazily on read
// once the latest check-out has passed.
//
// Reconciliation only looks at the latest check-out.  Two overlapping
// bookings can therefore keep a listing occupied until the later one ends.
type Ledger struct {
	store repository.Store
	log   *logrus.Logger
	now   func() time.Time
}

// NewLedger returns a Ledger over store.
func NewLedger(store repository.Store, log *logrus.Logger) *Ledger {
	return &Ledger{store: store, log: log, now: time.Now}
}

// Reconcile clears l.Occupied when the listing's latest confirmed
// check-out is not in the future.  It never sets the flag.  Running it
// concurrently or repeatedly is harmless.
//
// The unlocked check-out read only decides whether a write is worth
// attempting.  The clear itself runs under the listing lock and goes
// through Release, so a confirmation that commits in between keeps the
// flag set.
func (g *Ledger) Reconcile(ctx context.Context, l *model.Listing) error {
	if !l.Occupied {
		return nil
	}
	latest, ok, err := g.store.LatestCheckOut(ctx, l.ID)
	if err != nil {
		return err
	}
	if ok && latest.After(g.now()) {
		return nil
	}
	occupied := true
	err = g.store.WithinTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.LockListing(ctx, l.ID)
		if err != nil {
			return err
		}
		if !cur.Occupied {
			occupied = false
			return nil
		}
		released, err := g.Release(ctx, tx, l.ID)
		occupied = !released
		return err
	})
	if err != nil {
		return err
	}
	l.Occupied = occupied
	if !occupied {
		g.log.WithField("listing_id", l.ID).Debug("ledger: released stale occupancy")
	}
	return nil
}

// ReconcileAll reconciles every listing in place.  Failures are logged
// and leave that listing's flag as read.
func (g *Ledger) ReconcileAll(ctx context.Context, listings []model.Listing) {
	for i := range listings {
		if err := g.Reconcile(ctx, &listings[i]); err != nil {
			g.log.WithError(err).WithField("listing_id", listings[i].ID).Warn("ledger: reconcile failed")
		}
	}
}

// MarkOccupied sets the flag inside tx.  Setting it twice is a no-op.
func (g *Ledger) MarkOccupied(ctx context.Context, tx repository.Tx, listingID uint64) error {
	return tx.SetListingOccupied(ctx, listingID, true)
}

// Release clears the flag inside tx unless another confirmed booking of
// the listing still has a future check-out.  It reports whether the
// listing is free afterwards.
func (g *Ledger) Release(ctx context.Context, tx repository.Tx, listingID uint64) (bool, error) {
	active, err := tx.HasActiveBooking(ctx, listingID, g.now())
	if err != nil {
		return false, err
	}
	if active {
		return false, nil
	}
	if err := tx.SetListingOccupied(ctx, listingID, false); err != nil {
		return false, err
	}
	return true, nil
}
