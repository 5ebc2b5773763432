package model

import "time"

// Role is the portal role carried by every user and by the access token.
type Role string

const (
	RoleStudent   Role = "student"
	RoleAdmin     Role = "admin"
	RolePrincipal Role = "principal"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RolePrincipal:
		return true
	}
	return false
}

// IsStaff reports whether r may use the admin dashboard.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RolePrincipal }

// AllRoles lists every role in the order used by route guards.
func AllRoles() []string {
	return []string{string(RoleStudent), string(RoleAdmin), string(RolePrincipal)}
}

// StaffRoles lists the roles allowed on admin routes.
func StaffRoles() []string {
	return []string{string(RoleAdmin), string(RolePrincipal)}
}

// User represents a roster entry as stored in the `users` table.  The
// point balance is not a column: it is always derived from the user's
// activity history (see Activity).
//
// Fields:
//  ID           – UUID primary key.
//  Name         – display name.
//  Email        – unique address, compared byte for byte.
//  PasswordHash – bcrypt hash; never serialized.
//  Role         – student, admin or principal.
//  Department   – optional department used for notification targeting.
//  Year         – optional year of study used for notification targeting.
//  ProfileImage – optional image reference.
//  CreatedAt    – signup timestamp.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   *string   `json:"department,omitempty"`
	Year         *string   `json:"year,omitempty"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns a copy of u with the credential stripped.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Profile is the session view of a user: the roster record together with
// the derived balance, the activity history (oldest first) and the
// facility bookings (newest first).
type Profile struct {
	User
	Points   int64             `json:"points"`
	History  []Activity        `json:"history"`
	Bookings []FacilityBooking `json:"bookings"`
}

// RosterEntry is one row of the staff roster listing.
type RosterEntry struct {
	User
	Points int64 `json:"points"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
