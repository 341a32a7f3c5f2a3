// Package handler exposes organization settings over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	orgdomain "tenantadmin/internal/organization/domain"
	orgservice "tenantadmin/internal/organization/service"
	"tenantadmin/internal/server/httpx"
)

// Handler serves the /orgs/{orgID}/settings routes.
type Handler struct {
	orgs *orgservice.OrgService
	log  *zap.Logger
}

// NewHandler returns an organization Handler.
func NewHandler(orgs *orgservice.OrgService, log *zap.Logger) *Handler {
	return &Handler{orgs: orgs, log: log}
}

// Routes mounts the settings endpoints on r; r is expected to carry the orgID
// URL parameter.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

type orgView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get returns the organization's settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.Get(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orgToView(org))
}

type updateOrgRequest struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	LogoURL string `json:"logo_url"`
}

// Update sets name, slug, and logo for the organization.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateOrgRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	org, err := h.orgs.Update(r.Context(), chi.URLParam(r, "orgID"), req.Name, req.Slug, req.LogoURL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orgToView(org))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orgservice.ErrValidation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orgservice.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orgservice.ErrSlugTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	default:
		httpx.HandleError(w, h.log, err)
	}
}

func orgToView(o *orgdomain.Org) orgView {
	return orgView{
		ID:        o.ID,
		Name:      o.Name,
		Slug:      o.Slug,
		LogoURL:   o.LogoURL,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
