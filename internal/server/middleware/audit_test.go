package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tenantadmin/internal/platform/authctx"
	sessiondomain "tenantadmin/internal/session/domain"
)

type recordedEvent struct {
	orgID    string
	userID   string
	action   string
	resource string
}

type stubRecorder struct {
	events []recordedEvent
}

func (r *stubRecorder) Record(ctx context.Context, orgID, userID, action, resource, ip, metadata string) {
	r.events = append(r.events, recordedEvent{orgID: orgID, userID: userID, action: action, resource: resource})
}

func auditedHandler(rec *stubRecorder, status int) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return Audit(rec)(next)
}

func TestAuditRecordsMutations(t *testing.T) {
	rec := &stubRecorder{}
	req := httptest.NewRequest(http.MethodDelete, "/orgs/org-1/users/u2", nil)
	snap := &sessiondomain.Snapshot{UserID: "admin"}
	req = req.WithContext(authctx.WithSession(req.Context(), "sess-1", snap))
	auditedHandler(rec, http.StatusNoContent).ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}
	e := rec.events[0]
	if e.orgID != "org-1" || e.userID != "admin" || e.resource != "users" {
		t.Errorf("event = %+v", e)
	}
	if e.action != "DELETE /orgs/org-1/users/u2" {
		t.Errorf("action = %q", e.action)
	}
}

func TestAuditSkips(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"read", http.MethodGet, "/orgs/org-1/users", http.StatusOK},
		{"failed mutation", http.MethodPost, "/orgs/org-1/users", http.StatusForbidden},
		{"outside org subtree", http.MethodPost, "/auth/login", http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := &stubRecorder{}
			req := httptest.NewRequest(c.method, c.path, nil)
			auditedHandler(rec, c.status).ServeHTTP(httptest.NewRecorder(), req)
			if len(rec.events) != 0 {
				t.Errorf("events = %d, want 0", len(rec.events))
			}
		})
	}
}
