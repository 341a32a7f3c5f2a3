// Package handler exposes tenant-scoped user administration over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	membershipdomain "tenantadmin/internal/membership/domain"
	"tenantadmin/internal/server/httpx"
	userservice "tenantadmin/internal/user/service"
)

// Handler serves the /orgs/{orgID}/users routes.
type Handler struct {
	users *userservice.UserService
	log   *zap.Logger
}

// NewHandler returns a user Handler.
func NewHandler(users *userservice.UserService, log *zap.Logger) *Handler {
	return &Handler{users: users, log: log}
}

// Routes mounts the user endpoints on r; r is expected to carry the orgID URL
// parameter.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{userID}", h.Update)
	r.Delete("/{userID}", h.Remove)
}

type memberView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the org's members with their roles.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	members, err := h.users.ListUsers(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberView{
			ID:        m.User.ID,
			Email:     m.User.Email,
			Name:      m.User.Name,
			Role:      string(m.Role),
			CreatedAt: m.User.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Create adds a user to the org. An email unknown to the system creates the
// account too; a known email only gains a membership.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	var req createUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.users.CreateUser(r.Context(), orgID, req.Email, req.Password, req.Name,
		membershipdomain.Role(req.Role))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Update applies a partial update to a member; absent fields stay untouched.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	userID := chi.URLParam(r, "userID")
	var req updateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params := userservice.UpdateUserParams{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role := membershipdomain.Role(*req.Role)
		params.Role = &role
	}
	if err := h.users.UpdateUser(r.Context(), orgID, userID, params); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Remove deletes the member's org membership; the user account survives.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	userID := chi.URLParam(r, "userID")
	if err := h.users.RemoveUser(r.Context(), orgID, userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userservice.ErrValidation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, userservice.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, userservice.ErrAlreadyMember),
		errors.Is(err, userservice.ErrEmailTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, userservice.ErrLastOwner):
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httpx.HandleError(w, h.log, err)
	}
}
