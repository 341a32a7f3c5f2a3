// Package handler exposes the auth service over HTTP: signup, login, token
// refresh, and logout.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authservice "tenantadmin/internal/auth/service"
	"tenantadmin/internal/server/httpx"
	sessiondomain "tenantadmin/internal/session/domain"
)

// Handler serves the /auth routes.
type Handler struct {
	auth *authservice.AuthService
	log  *zap.Logger
}

// NewHandler returns an auth Handler.
func NewHandler(auth *authservice.AuthService, log *zap.Logger) *Handler {
	return &Handler{auth: auth, log: log}
}

// Routes mounts the auth endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	OrgName  string `json:"org_name"`
}

// SignUp creates a user, their organization, and the OWNER membership.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.Name, req.OrgName)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, map[string]string{"status": "created"})
	case errors.Is(err, authservice.ErrValidation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authservice.ErrEmailAlreadyRegistered),
		errors.Is(err, authservice.ErrOrgNameTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	default:
		httpx.HandleError(w, h.log, err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Session      sessionView `json:"session"`
}

type sessionView struct {
	UserID      string           `json:"user_id"`
	Email       string           `json:"email"`
	Name        string           `json:"name,omitempty"`
	Memberships []membershipView `json:"memberships"`
}

type membershipView struct {
	OrgID   string `json:"org_id"`
	OrgSlug string `json:"org_slug"`
	OrgName string `json:"org_name"`
	Role    string `json:"role"`
}

// Login authenticates with email/password and returns tokens plus the
// membership snapshot.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Authenticate(r.Context(), req.Email, req.Password, httpx.ClientIP(r))
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, authResultToResponse(res))
	case errors.Is(err, authservice.ErrInvalidCredentials):
		httpx.Error(w, http.StatusUnauthorized, err.Error())
	default:
		httpx.HandleError(w, h.log, err)
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token and returns a new token pair with a fresh
// snapshot. A replayed old token revokes all of the user's sessions.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, authResultToResponse(res))
	case errors.Is(err, authservice.ErrInvalidRefreshToken),
		errors.Is(err, authservice.ErrRefreshTokenReuse):
		httpx.Error(w, http.StatusUnauthorized, err.Error())
	default:
		httpx.HandleError(w, h.log, err)
	}
}

// Logout revokes the session identified by the refresh token in the body, or
// by the caller's access token when no body token is given. Always 204: an
// already-invalid token has nothing left to revoke.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = httpx.Decode(r, &req)
	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		httpx.HandleError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func authResultToResponse(res *authservice.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		Session:      snapshotToView(res.Snapshot),
	}
}

func snapshotToView(snap *sessiondomain.Snapshot) sessionView {
	memberships := make([]membershipView, len(snap.Memberships))
	for i, m := range snap.Memberships {
		memberships[i] = membershipView{
			OrgID:   m.OrgID,
			OrgSlug: m.OrgSlug,
			OrgName: m.OrgName,
			Role:    string(m.Role),
		}
	}
	return sessionView{
		UserID:      snap.UserID,
		Email:       snap.Email,
		Name:        snap.Name,
		Memberships: memberships,
	}
}
