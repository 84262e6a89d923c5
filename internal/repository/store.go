package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rental-booking/internal/model"
)

// Store is the persistence surface of the booking workflow.  Services
// depend on this interface; SQLStore implements it on MySQL and tests use
// an in-memory fake.
type Store interface {
	GetListing(ctx context.Context, id uint64) (*model.Listing, error)
	ListListings(ctx context.Context) ([]model.Listing, error)
	CreateListing(ctx context.Context, l *model.Listing) error
	UpdateListing(ctx context.Context, l *model.Listing) error
	DeleteListing(ctx context.Context, id, hostID uint64) error

	BookingBySession(ctx context.Context, sessionID string) (*model.Booking, error)
	LatestCheckOut(ctx context.Context, listingID uint64) (time.Time, bool, error)
	HasOverlap(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error)
	BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	BookingsByHost(ctx context.Context, hostID uint64) ([]model.BookingDetail, error)

	// WithinTx runs fn in one transaction.  It commits when fn returns nil
	// and rolls back otherwise, returning fn's error unchanged.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write scope of a single workflow step.
type Tx interface {
	InsertBooking(ctx context.Context, b *model.Booking) error
	LockBooking(ctx context.Context, id uint64) (*model.Booking, error)
	LockListing(ctx context.Context, id uint64) (*model.Listing, error)
	DeleteBooking(ctx context.Context, id uint64) error
	HasActiveBooking(ctx context.Context, listingID uint64, now time.Time) (bool, error)
	SetListingOccupied(ctx context.Context, id uint64, occupied bool) error
}

// SQLStore implements Store with the MySQL repositories.
type SQLStore struct {
	db       *sql.DB
	Listings *ListingRepo
	Bookings *BookingRepo
}

// NewSQLStore wires the listing and booking repositories onto db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, Listings: NewListingRepo(db), Bookings: NewBookingRepo(db)}
}

func (s *SQLStore) GetListing(ctx context.Context, id uint64) (*model.Listing, error) {
	return s.Listings.GetByID(ctx, id)
}

func (s *SQLStore) ListListings(ctx context.Context) ([]model.Listing, error) {
	return s.Listings.List(ctx)
}

func (s *SQLStore) CreateListing(ctx context.Context, l *model.Listing) error {
	return s.Listings.Create(ctx, l)
}

func (s *SQLStore) UpdateListing(ctx context.Context, l *model.Listing) error {
	return s.Listings.Update(ctx, l)
}

func (s *SQLStore) DeleteListing(ctx context.Context, id, hostID uint64) error {
	return s.Listings.Delete(ctx, id, hostID)
}

func (s *SQLStore) BookingBySession(ctx context.Context, sessionID string) (*model.Booking, error) {
	return s.Bookings.GetBySessionID(ctx, sessionID)
}

func (s *SQLStore) LatestCheckOut(ctx context.Context, listingID uint64) (time.Time, bool, error) {
	return s.Bookings.LatestCheckOut(ctx, listingID)
}

func (s *SQLStore) HasOverlap(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error) {
	return s.Bookings.HasOverlap(ctx, listingID, checkIn, checkOut)
}

func (s *SQLStore) BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.Bookings.ListByUser(ctx, userID)
}

func (s *SQLStore) BookingsByHost(ctx context.Context, hostID uint64) ([]model.BookingDetail, error) {
	return s.Bookings.ListByHost(ctx, hostID)
}

// WithinTx begins a transaction and hands it to fn.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type sqlTx struct {
	tx *sql.Tx
	s  *SQLStore
}

func (t *sqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.s.Bookings.InsertTx(ctx, t.tx, b)
}

func (t *sqlTx) LockBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.s.Bookings.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) LockListing(ctx context.Context, id uint64) (*model.Listing, error) {
	return t.s.Listings.GetByIDTx(ctx, t.tx, id)
}

func (t *sqlTx) DeleteBooking(ctx context.Context, id uint64) error {
	return t.s.Bookings.DeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) HasActiveBooking(ctx context.Context, listingID uint64, now time.Time) (bool, error) {
	return t.s.Bookings.HasActiveTx(ctx, t.tx, listingID, now)
}

func (t *sqlTx) SetListingOccupied(ctx context.Context, id uint64, occupied bool) error {
	return t.s.Listings.SetOccupiedTx(ctx, t.tx, id, occupied)
}
