package rbac

import (
	"strings"

	sessiondomain "tenantadmin/internal/session/domain"
)

// DecisionKind classifies a route gate outcome.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
	DecisionDeny
)

// Decision is the outcome of the route gate for one request.
type Decision struct {
	Kind   DecisionKind
	Target string // redirect target; set only for DecisionRedirect
}

const signInPath = "/auth/login"

// DecideRoute maps (path, resolved session) to allow/redirect/deny. It is a
// pure function with no shared state across requests; the HTTP middleware
// only translates the decision into a response.
//
// Rules:
//   - /auth/... without a session: allow (sign-in and sign-up are public).
//   - /auth/... with a session: redirect to the first org's dashboard.
//   - any other path without a session: redirect to sign-in.
//   - /orgs/{orgID}/... with a session lacking a membership for orgID:
//     redirect to the first org's dashboard, or deny when the session has no
//     memberships at all.
//   - everything else with a session: allow.
func DecideRoute(path string, snap *sessiondomain.Snapshot) Decision {
	if strings.HasPrefix(path, "/auth/") || path == "/auth" {
		if snap == nil {
			return Decision{Kind: DecisionAllow}
		}
		if target := firstOrgDashboard(snap); target != "" {
			return Decision{Kind: DecisionRedirect, Target: target}
		}
		return Decision{Kind: DecisionAllow}
	}

	if snap == nil {
		return Decision{Kind: DecisionRedirect, Target: signInPath}
	}

	if orgID := OrgIDFromPath(path); orgID != "" {
		if snap.MembershipFor(orgID) == nil {
			if target := firstOrgDashboard(snap); target != "" {
				return Decision{Kind: DecisionRedirect, Target: target}
			}
			return Decision{Kind: DecisionDeny}
		}
	}
	return Decision{Kind: DecisionAllow}
}

// OrgIDFromPath extracts the org id from /orgs/{orgID}/... paths; empty when
// the path is outside the org subtree. Shared with the audit middleware,
// which scopes its entries by the same segment.
func OrgIDFromPath(path string) string {
	const prefix = "/orgs/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func firstOrgDashboard(snap *sessiondomain.Snapshot) string {
	if len(snap.Memberships) == 0 {
		return ""
	}
	return "/orgs/" + snap.Memberships[0].OrgID + "/dashboard"
}
