package domain

import (
	"time"

	membershipdomain "tenantadmin/internal/membership/domain"
)

// Session is the server-side session record backing refresh token rotation.
type Session struct {
	ID               string
	UserID           string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	IPAddress        string
	RefreshJti       string // current refresh token jti for rotation binding
	RefreshTokenHash string // SHA-256 hash of current refresh token
	CreatedAt        time.Time
}

// MembershipInfo is one entry of a session snapshot: the caller's role in one
// organization, denormalized with the org's slug and name for display.
type MembershipInfo struct {
	OrgID   string
	OrgSlug string
	OrgName string
	Role    membershipdomain.Role
}

// Snapshot is the point-in-time view of a user embedded in the access token:
// identity fields plus the complete membership list as of the last
// authentication or token refresh. It is deliberately not auto-refreshed;
// callers that act on a different user must re-check current storage instead
// of trusting the snapshot.
type Snapshot struct {
	UserID      string
	Email       string
	Name        string
	Memberships []MembershipInfo
}

// MembershipFor returns the snapshot entry for orgID, or nil when the user
// holds no membership in that organization.
func (s *Snapshot) MembershipFor(orgID string) *MembershipInfo {
	for i := range s.Memberships {
		if s.Memberships[i].OrgID == orgID {
			return &s.Memberships[i]
		}
	}
	return nil
}
