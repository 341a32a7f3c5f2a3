package rbac

import (
	"context"
	"errors"
	"fmt"

	membershipdomain "tenantadmin/internal/membership/domain"
	"tenantadmin/internal/platform/authctx"
	sessiondomain "tenantadmin/internal/session/domain"
)

// Sentinel errors for authorization failures; handlers map them to HTTP codes.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// MembershipGetter returns a user's membership in an org from current
// storage. Used by RequireTenantMember, which must not trust the stale
// session snapshot when the check concerns a different user.
type MembershipGetter interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
}

// RequireAuthenticated returns the session snapshot from context, or
// ErrUnauthenticated when no valid session exists.
func RequireAuthenticated(ctx context.Context) (*sessiondomain.Snapshot, error) {
	snap, ok := authctx.GetSnapshot(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return snap, nil
}

// RequireMembership ensures the caller is authenticated and holds a
// membership in orgID, resolved purely from the session snapshot. Staleness
// here only affects the caller's own access and is bounded by the token
// lifetime. Returns the matching snapshot entry.
func RequireMembership(ctx context.Context, orgID string) (*sessiondomain.MembershipInfo, error) {
	snap, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	m := snap.MembershipFor(orgID)
	if m == nil {
		return nil, fmt.Errorf("%w: not a member of this organization", ErrForbidden)
	}
	return m, nil
}

// RequirePermission ensures the caller is a member of orgID with the given
// permission. Returns the caller's snapshot entry.
func RequirePermission(ctx context.Context, orgID string, permission Permission) (*sessiondomain.MembershipInfo, error) {
	m, err := RequireMembership(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !HasPermission(m.Role, permission) {
		return nil, fmt.Errorf("%w: missing permission %s", ErrForbidden, permission)
	}
	return m, nil
}

// RequireTenantMember confirms, against current storage, that targetUserID
// holds a membership in orgID. The caller must already be a member of orgID.
// The fresh lookup is deliberate: a stale snapshot for a *different* user
// could let an action leak across tenants. Returns the target's membership.
func RequireTenantMember(ctx context.Context, getter MembershipGetter, orgID, targetUserID string) (*membershipdomain.Membership, error) {
	if _, err := RequireMembership(ctx, orgID); err != nil {
		return nil, err
	}
	m, err := getter.GetByUserAndOrg(ctx, targetUserID, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve target membership: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: user does not belong to this organization", ErrForbidden)
	}
	return m, nil
}
