package models

import "time"

// Role is a user's capability level. Only admins may use the dashboard.
type Role string

// Role constants
const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is a dashboard account.
type User struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an opaque authenticated session.
type Session struct {
	Token     string    `json:"token"`
	UserUID   string    `json:"user_uid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Actor is the resolved identity an operation runs as. It is passed
// explicitly to anything that needs the current user; there is no ambient
// session state.
type Actor struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
