package middleware

import (
	"net/http"

	"tenantadmin/internal/platform/authctx"
	"tenantadmin/internal/platform/rbac"
)

// Gate applies the route decision before the handler runs. Allowed requests
// continue, redirects get a Location header, and denials stop at 403. The
// policy itself lives in rbac.DecideRoute; this only translates the decision
// into a response. skipPaths is the set of paths the gate never evaluates
// (e.g. /healthz).
func Gate(skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			snap, _ := authctx.GetSnapshot(r.Context())
			switch d := rbac.DecideRoute(r.URL.Path, snap); d.Kind {
			case rbac.DecisionAllow:
				next.ServeHTTP(w, r)
			case rbac.DecisionRedirect:
				http.Redirect(w, r, d.Target, http.StatusFound)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
