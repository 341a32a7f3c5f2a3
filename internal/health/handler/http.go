// Package handler exposes readiness/liveness over HTTP.
package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"tenantadmin/internal/server/httpx"
)

// Handler serves /healthz. With a database handle it reports readiness
// (DB ping); without one it is a pure liveness check.
type Handler struct {
	db *sql.DB
}

// NewHandler returns a health Handler. db may be nil.
func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// Check reports whether the service can take traffic.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
