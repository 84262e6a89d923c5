package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/rental-booking/internal/model"
)

// ListingRepo encapsulates all database queries related to listings.
// Structured fields (location, amenities, images, available dates) live
// in JSON columns and are decoded on read.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo with the provided DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// listingColumns is shared by plain reads and the booking joins, which
// alias listings as l.
const listingColumns = `l.id, l.host_id, l.title, l.description, l.price_per_night_cents,
       l.location, l.property_type, l.max_guests, l.num_bedrooms, l.num_bathrooms,
       l.amenities, l.images, l.available_dates, l.occupied, l.created_at, l.updated_at`

// listingRow holds the raw column values of one listing while scanning.
type listingRow struct {
	l         model.Listing
	ptype     string
	location  []byte
	amenities []byte
	images    []byte
	dates     []byte
}

func (r *listingRow) dest() []any {
	return []any{
		&r.l.ID, &r.l.HostID, &r.l.Title, &r.l.Description, &r.l.PricePerNightCents,
		&r.location, &r.ptype, &r.l.MaxGuests, &r.l.NumBedrooms, &r.l.NumBathrooms,
		&r.amenities, &r.images, &r.dates, &r.l.Occupied, &r.l.CreatedAt, &r.l.UpdatedAt,
	}
}

func (r *listingRow) decode() (model.Listing, error) {
	l := r.l
	l.PropertyType = model.PropertyType(r.ptype)
	if err := unmarshalColumn(r.location, &l.Location); err != nil {
		return l, fmt.Errorf("listing %d location: %w", l.ID, err)
	}
	if err := unmarshalColumn(r.amenities, &l.Amenities); err != nil {
		return l, fmt.Errorf("listing %d amenities: %w", l.ID, err)
	}
	if err := unmarshalColumn(r.images, &l.Images); err != nil {
		return l, fmt.Errorf("listing %d images: %w", l.ID, err)
	}
	if err := unmarshalColumn(r.dates, &l.AvailableDates); err != nil {
		return l, fmt.Errorf("listing %d available_dates: %w", l.ID, err)
	}
	if l.Amenities == nil {
		l.Amenities = []string{}
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	if l.AvailableDates == nil {
		l.AvailableDates = []time.Time{}
	}
	return l, nil
}

func unmarshalColumn(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// jsonColumns encodes the JSON columns of l in insert order.
func jsonColumns(l *model.Listing) (location, amenities, images, dates []byte, err error) {
	if location, err = json.Marshal(l.Location); err != nil {
		return
	}
	if amenities, err = json.Marshal(nonNilStrings(l.Amenities)); err != nil {
		return
	}
	if images, err = json.Marshal(nonNilStrings(l.Images)); err != nil {
		return
	}
	ds := l.AvailableDates
	if ds == nil {
		ds = []time.Time{}
	}
	dates, err = json.Marshal(ds)
	return
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create inserts a new listing.  On success the listing's ID and
// timestamps are populated from the stored row.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	location, amenities, images, dates, err := jsonColumns(l)
	if err != nil {
		return err
	}
	const q = `INSERT INTO listings (host_id, title, description, price_per_night_cents, location,
	                                 property_type, max_guests, num_bedrooms, num_bathrooms,
	                                 amenities, images, available_dates)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.HostID, l.Title, l.Description, l.PricePerNightCents,
		location, string(l.PropertyType), l.MaxGuests, l.NumBedrooms, l.NumBathrooms,
		amenities, images, dates)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := getListing(ctx, r.db, uint64(id), false)
	if err != nil {
		return err
	}
	*l = *stored
	return nil
}

// GetByID fetches a listing by id.  It returns ErrListingNotFound if no
// row matches.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*model.Listing, error) {
	return getListing(ctx, r.db, id, false)
}

// GetByIDTx reads a listing inside tx and locks its row until the
// transaction ends.
func (r *ListingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Listing, error) {
	return getListing(ctx, tx, id, true)
}

func getListing(ctx context.Context, q querier, id uint64, lock bool) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings l WHERE l.id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	var row listingRow
	if err := q.QueryRowContext(ctx, query, id).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	l, err := row.decode()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns every listing, newest first.  Filtering is applied by the
// caller with model.ListingFilter.
func (r *ListingRepo) List(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings l ORDER BY l.created_at DESC, l.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Listing, 0)
	for rows.Next() {
		var row listingRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		l, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the editable fields of a listing owned by l.HostID.
// host_id and occupied are never written here.  It returns
// ErrListingNotFound when no row matches id and host.
func (r *ListingRepo) Update(ctx context.Context, l *model.Listing) error {
	location, amenities, images, dates, err := jsonColumns(l)
	if err != nil {
		return err
	}
	const q = `UPDATE listings
	           SET title = ?, description = ?, price_per_night_cents = ?, location = ?,
	               property_type = ?, max_guests = ?, num_bedrooms = ?, num_bathrooms = ?,
	               amenities = ?, images = ?, available_dates = ?
	           WHERE id = ? AND host_id = ?`
	res, err := r.db.ExecContext(ctx, q, l.Title, l.Description, l.PricePerNightCents, location,
		string(l.PropertyType), l.MaxGuests, l.NumBedrooms, l.NumBathrooms,
		amenities, images, dates, l.ID, l.HostID)
	if err != nil {
		return err
	}
	// clientFoundRows is enabled on the connection, so unchanged rows still count.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}
	stored, err := getListing(ctx, r.db, l.ID, false)
	if err != nil {
		return err
	}
	*l = *stored
	return nil
}

// Delete removes a listing owned by hostID.  Its bookings are removed by
// the ON DELETE CASCADE foreign key.
func (r *ListingRepo) Delete(ctx context.Context, id, hostID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ? AND host_id = ?`, id, hostID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// SetOccupiedTx writes the cached occupancy flag inside the caller's
// transaction.  Writing the value the row already holds is a no-op.
func (r *ListingRepo) SetOccupiedTx(ctx context.Context, tx *sql.Tx, id uint64, occupied bool) error {
	return setOccupied(ctx, tx, id, occupied)
}

func setOccupied(ctx context.Context, q querier, id uint64, occupied bool) error {
	_, err := q.ExecContext(ctx, `UPDATE listings SET occupied = ? WHERE id = ? AND occupied <> ?`, occupied, id, occupied)
	return err
}
