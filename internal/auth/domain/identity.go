package domain

import (
	"errors"
	"time"
)

// Role is the portal-wide access level of an identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// ErrUnknownRole reports a role value outside the known set.
var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole validates a role string from storage or a credential payload.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrUnknownRole
	}
}

// Elevated reports whether the role may act on resources it does not own.
func (r Role) Elevated() bool {
	return r == RoleFaculty || r == RoleAdmin
}

// Identity is a row in the user directory. The authenticator resolves one of
// these on every request; an inactive identity never passes, regardless of
// how fresh its credential is.
type Identity struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	Active       bool
	PasswordHash string // argon2id PHC encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the wire-safe projection of an Identity (no password hash).
type Summary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// Summary returns the wire-safe projection of the identity.
func (i Identity) Summary() Summary {
	return Summary{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		Role:        i.Role,
	}
}
