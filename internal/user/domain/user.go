package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Email is stored case-sensitively; uniqueness
// is enforced on the exact stored value. Users are never hard-deleted by org
// administration; removing a user from an org only deletes the membership.
type User struct {
	ID           string
	Email        string
	Name         string // optional display name
	PasswordHash string // opaque one-way hash; never the plaintext
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
