package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"tenantadmin/internal/audit"
	"tenantadmin/internal/platform/authctx"
	"tenantadmin/internal/platform/rbac"
	"tenantadmin/internal/server/httpx"
)

// statusRecorder captures the response status code so the audit trail can
// skip failed requests.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Audit records an audit log entry for every successful mutating request in
// the org subtree. Recording is best-effort and never fails the request; the
// recorder decides what failure handling looks like.
func Audit(rec audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			if !mutating(r.Method) || sw.status >= http.StatusBadRequest {
				return
			}
			orgID := rbac.OrgIDFromPath(r.URL.Path)
			if orgID == "" {
				return
			}
			var userID string
			if snap, ok := authctx.GetSnapshot(r.Context()); ok {
				userID = snap.UserID
			}
			rec.Record(r.Context(), orgID, userID,
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				resourceFromPath(r.URL.Path),
				httpx.ClientIP(r), "")
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// resourceFromPath returns the segment after the org id, e.g. "users" for
// /orgs/{orgID}/users/{userID}.
func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/orgs/")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
