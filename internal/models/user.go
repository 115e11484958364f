// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// User represents a shop customer or staff account. Accounts can be
// created locally (email + password) or through a federated login, in
// which case the provider id is stored for subsequent logins.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Handle       string     `json:"handle"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	Role         Role       `json:"role"`
	GoogleID     *string    `json:"-"`
	FacebookID   *string    `json:"-"`
	ThemeID      *uuid.UUID `json:"theme_id"`
	TOTPSecret   *string    `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool       `json:"totp_enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff returns true for roles that may access the back-office.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// Needs2FASetup returns true if a staff user has not completed 2FA
// enrollment. Customer accounts never go through 2FA.
func (u *User) Needs2FASetup() bool {
	return u.IsStaff() && !u.TOTPEnabled
}
