// Package server assembles the HTTP router: middleware chain, feature
// handlers, and the health endpoint.
package server

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"tenantadmin/internal/audit"
	audithandler "tenantadmin/internal/audit/handler"
	auditrepo "tenantadmin/internal/audit/repository"
	authhandler "tenantadmin/internal/auth/handler"
	authservice "tenantadmin/internal/auth/service"
	healthhandler "tenantadmin/internal/health/handler"
	orghandler "tenantadmin/internal/organization/handler"
	orgservice "tenantadmin/internal/organization/service"
	"tenantadmin/internal/security"
	"tenantadmin/internal/server/middleware"
	userhandler "tenantadmin/internal/user/handler"
	userservice "tenantadmin/internal/user/service"
)

// Deps holds the services and infrastructure the router wires together.
type Deps struct {
	Auth   *authservice.AuthService
	Users  *userservice.UserService
	Orgs   *orgservice.OrgService
	Tokens *security.TokenProvider

	// AuditRepo backs both the audit trail endpoint and the mutation
	// recording middleware. If nil, neither is active.
	AuditRepo auditrepo.Repository

	// DB is used by the health endpoint for readiness. If nil, /healthz is a
	// pure liveness check.
	DB *sql.DB

	Log    *zap.Logger
	Tracer trace.Tracer
	Meter  metric.Meter
}

// NewRouter builds the full HTTP handler.
//
// Route → handler mapping:
//   - /auth/*                  → internal/auth/handler
//   - /orgs/{orgID}/users/*    → internal/user/handler
//   - /orgs/{orgID}/settings/* → internal/organization/handler
//   - /orgs/{orgID}/audit/*    → internal/audit/handler
//   - /healthz                 → internal/health/handler
func NewRouter(deps Deps) http.Handler {
	skip := map[string]bool{"/healthz": true}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(deps.Log))
	if deps.Tracer != nil && deps.Meter != nil {
		r.Use(middleware.Telemetry(deps.Tracer, deps.Meter, skip))
	}
	r.Use(middleware.Auth(deps.Tokens))
	r.Use(middleware.Gate(skip))
	if deps.AuditRepo != nil {
		r.Use(middleware.Audit(audit.NewLogger(deps.AuditRepo, deps.Log)))
	}

	r.Get("/healthz", healthhandler.NewHandler(deps.DB).Check)

	r.Route("/auth", authhandler.NewHandler(deps.Auth, deps.Log).Routes)

	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Route("/users", userhandler.NewHandler(deps.Users, deps.Log).Routes)
		r.Route("/settings", orghandler.NewHandler(deps.Orgs, deps.Log).Routes)
		if deps.AuditRepo != nil {
			r.Route("/audit", audithandler.NewHandler(deps.AuditRepo, deps.Log).Routes)
		}
	})

	return r
}
