package model

import "time"

// Roles carried in the session token.
const (
	RoleUser  = "USER"
	RoleHost  = "HOST"
	RoleAdmin = "ADMIN"
)

// User represents an account as stored in the `users` table.  The JSON
// tags omit the password hash so a User can be returned directly.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FullName     – display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER, HOST or ADMIN.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	FullName     string    `json:"full_name"`  // users.full_name
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	Role         string    `json:"role"`       // users.role
	CreatedAt    time.Time `json:"created_at"` // users.created_at
	UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}

// Principal is the authenticated caller of a request as resolved by the
// session middleware.
type Principal struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the caller has the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
