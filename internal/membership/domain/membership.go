package domain

import (
	"fmt"
	"time"
)

// Membership links a user to an organization with a role. At most one
// membership exists per (user, org) pair.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	Role      Role
	CreatedAt time.Time
}

// Role is the closed set of membership roles. Anything outside the three
// constants is rejected at the boundary by ParseRole; permission checks treat
// unknown roles as having no permissions.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ParseRole validates s against the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
