package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/rental-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Writes that must
// be atomic with listing updates have a *Tx variant taking the caller's
// transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.listing_id, b.user_id, b.check_in, b.check_out, b.guests,
       b.total_nights, b.total_price_cents, b.session_id, b.status, b.created_at`

func bookingDest(b *model.Booking) []any {
	return []any{
		&b.ID, &b.ListingID, &b.UserID, &b.CheckIn, &b.CheckOut, &b.Guests,
		&b.TotalNights, &b.TotalPriceCents, &b.SessionID, &b.Status, &b.CreatedAt,
	}
}

// InsertTx stores b inside tx and fills in its ID and CreatedAt.  A
// second booking for the same SessionID fails with ErrDuplicateSession.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if b.Status == "" {
		b.Status = model.BookingConfirmed
	}
	const q = `INSERT INTO bookings (listing_id, user_id, check_in, check_out, guests,
	                                 total_nights, total_price_cents, session_id, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.ListingID, b.UserID, b.CheckIn.UTC(), b.CheckOut.UTC(),
		b.Guests, b.TotalNights, b.TotalPriceCents, b.SessionID, b.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSession
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// GetBySessionID returns the booking created for a payment session, or
// ErrBookingNotFound.
func (r *BookingRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.session_id = ?`, sessionID).
		Scan(bookingDest(&b)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetByIDForUpdateTx reads a booking and locks its row for the rest of tx.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? FOR UPDATE`, id).
		Scan(bookingDest(&b)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// DeleteTx removes a booking.  Cancellation is a hard delete.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// HasActiveTx reports whether listingID still has a confirmed booking
// whose check-out is after now.  It is a locking read, so it sees rows
// committed after the transaction's snapshot was taken.
func (r *BookingRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, listingID uint64, now time.Time) (bool, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM bookings WHERE listing_id = ? AND status = ? AND check_out > ? LIMIT 1 LOCK IN SHARE MODE`,
		listingID, model.BookingConfirmed, now.UTC()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// LatestCheckOut returns the latest check-out among the listing's
// confirmed bookings.  ok is false when the listing has none.
func (r *BookingRepo) LatestCheckOut(ctx context.Context, listingID uint64) (t time.Time, ok bool, err error) {
	var nt sql.NullTime
	err = r.db.QueryRowContext(ctx,
		`SELECT MAX(check_out) FROM bookings WHERE listing_id = ? AND status = ?`,
		listingID, model.BookingConfirmed).Scan(&nt)
	if err != nil || !nt.Valid {
		return time.Time{}, false, err
	}
	return nt.Time, true, nil
}

// HasOverlap reports whether a confirmed booking of listingID intersects
// the half-open stay [checkIn, checkOut).
func (r *BookingRepo) HasOverlap(ctx context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings
		               WHERE listing_id = ? AND status = ? AND check_in < ? AND check_out > ?)`,
		listingID, model.BookingConfirmed, checkOut.UTC(), checkIn.UTC()).Scan(&exists)
	return exists, err
}

// ListByUser returns the bookings made by userID with their listings,
// newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, `b.user_id = ?`, userID)
}

// ListByHost returns the bookings of every listing hosted by hostID.
func (r *BookingRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, `l.host_id = ?`, hostID)
}

func (r *BookingRepo) listDetails(ctx context.Context, where string, arg any) ([]model.BookingDetail, error) {
	q := `SELECT ` + bookingColumns + `, ` + listingColumns + `
	      FROM bookings b
	      JOIN listings l ON l.id = b.listing_id
	      WHERE ` + where + `
	      ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		var d model.BookingDetail
		var lr listingRow
		if err := rows.Scan(append(bookingDest(&d.Booking), lr.dest()...)...); err != nil {
			return nil, err
		}
		if d.Listing, err = lr.decode(); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
