// Package handler exposes the org's audit trail over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auditrepo "tenantadmin/internal/audit/repository"
	"tenantadmin/internal/platform/rbac"
	"tenantadmin/internal/server/httpx"
)

// Handler serves the /orgs/{orgID}/audit routes.
type Handler struct {
	repo auditrepo.Repository
	log  *zap.Logger
}

// NewHandler returns an audit Handler.
func NewHandler(repo auditrepo.Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// Routes mounts the audit endpoints on r; r is expected to carry the orgID
// URL parameter.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
}

type auditLogView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the org's audit entries, newest first. Requires settings:read.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if _, err := rbac.RequirePermission(r.Context(), orgID, rbac.PermSettingsRead); err != nil {
		httpx.HandleError(w, h.log, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httpx.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.repo.ListByOrg(r.Context(), orgID, limit)
	if err != nil {
		httpx.HandleError(w, h.log, err)
		return
	}
	out := make([]auditLogView, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditLogView{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Resource:  e.Resource,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"audit_logs": out})
}
