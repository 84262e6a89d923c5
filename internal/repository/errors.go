// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrListingNotFound indicates that a listing was not located in the DB.
var ErrListingNotFound = errors.New("listing not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateSession is returned by InsertBooking when a booking for the
// same payment session already exists.  The unique key on
// bookings.session_id is what enforces it, so concurrent inserts for one
// session resolve to exactly one row.
var ErrDuplicateSession = errors.New("booking already exists for session")

// ErrEmailExists is returned when signing up with a taken email.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate entry error.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
