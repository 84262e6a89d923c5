package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// Catalog serves listing reads, reconciling occupancy on the way out, and
// host-owned listing writes.
type Catalog struct {
	store  repository.Store
	ledger *Ledger
	log    *logrus.Logger
}

// NewCatalog returns a Catalog.
func NewCatalog(store repository.Store, ledger *Ledger, log *logrus.Logger) *Catalog {
	return &Catalog{store: store, ledger: ledger, log: log}
}

// ListingInput carries the host-editable fields of a listing.
type ListingInput struct {
	Title              string
	Description        string
	PricePerNightCents int64
	Location           model.Location
	PropertyType       model.PropertyType
	MaxGuests          int
	NumBedrooms        int
	NumBathrooms       int
	Amenities          []string
	Images             []string
	AvailableDates     []time.Time
}

func (in ListingInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case in.PricePerNightCents <= 0:
		return fmt.Errorf("%w: price per night must be greater than 0", ErrInvalidInput)
	case !in.PropertyType.Valid():
		return fmt.Errorf("%w: unknown property type %q", ErrInvalidInput, in.PropertyType)
	case in.MaxGuests < 1:
		return fmt.Errorf("%w: max guests must be at least 1", ErrInvalidInput)
	case in.NumBedrooms < 0 || in.NumBathrooms < 0:
		return fmt.Errorf("%w: room counts cannot be negative", ErrInvalidInput)
	}
	return nil
}

func (in ListingInput) apply(l *model.Listing) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.PricePerNightCents = in.PricePerNightCents
	l.Location = in.Location
	l.PropertyType = in.PropertyType
	l.MaxGuests = in.MaxGuests
	l.NumBedrooms = in.NumBedrooms
	l.NumBathrooms = in.NumBathrooms
	l.Amenities = in.Amenities
	l.Images = in.Images
	l.AvailableDates = in.AvailableDates
}

// List returns the listings matching f after reconciling their occupancy.
func (c *Catalog) List(ctx context.Context, f model.ListingFilter) ([]model.Listing, error) {
	all, err := c.store.ListListings(ctx)
	if err != nil {
		return nil, err
	}
	matched := f.Apply(all)
	c.ledger.ReconcileAll(ctx, matched)
	return matched, nil
}

// Get returns one listing after reconciling its occupancy.
func (c *Catalog) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	l, err := c.getListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.ledger.Reconcile(ctx, l); err != nil {
		c.log.WithError(err).WithField("listing_id", id).Warn("catalog: reconcile failed")
	}
	return l, nil
}

// Create publishes a new listing owned by hostID.
func (c *Catalog) Create(ctx context.Context, hostID uint64, in ListingInput) (*model.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	l := &model.Listing{HostID: hostID}
	in.apply(l)
	if err := c.store.CreateListing(ctx, l); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"listing_id": l.ID, "user_id": hostID}).Info("catalog: listing created")
	return l, nil
}

// Update replaces the editable fields of a listing.  Only its host or an
// admin may update it; the host never changes.
func (c *Catalog) Update(ctx context.Context, id uint64, by model.Principal, in ListingInput) (*model.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	l, err := c.owned(ctx, id, by)
	if err != nil {
		return nil, err
	}
	in.apply(l)
	if err := c.store.UpdateListing(ctx, l); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return nil, err
	}
	return l, nil
}

// Delete removes a listing and, through the foreign key, its bookings.
func (c *Catalog) Delete(ctx context.Context, id uint64, by model.Principal) error {
	l, err := c.owned(ctx, id, by)
	if err != nil {
		return err
	}
	if err := c.store.DeleteListing(ctx, l.ID, l.HostID); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return err
	}
	c.log.WithFields(logrus.Fields{"listing_id": id, "user_id": by.UserID}).Info("catalog: listing deleted")
	return nil
}

func (c *Catalog) owned(ctx context.Context, id uint64, by model.Principal) (*model.Listing, error) {
	l, err := c.getListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.HostID != by.UserID && !by.IsAdmin() {
		return nil, ErrForbidden
	}
	return l, nil
}

func (c *Catalog) getListing(ctx context.Context, id uint64) (*model.Listing, error) {
	l, err := c.store.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return nil, err
	}
	return l, nil
}
