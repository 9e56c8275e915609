package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/service"
)

// UserHandler manages registration, profiles, and account administration.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// idParam parses the {id} path parameter. Chi guarantees the parameter
// exists on these routes; the numeric parse can still fail on garbage.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

type registerRequest struct {
	Username      string `json:"username"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	FavoritePlace string `json:"favoritePlace"`
	Password      string `json:"password"`
	Password2     string `json:"password2"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/users
//
// The two password fields must match — the same confirm-password rule the
// registration form enforces. Everything else is validated by the service.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if req.Password != req.Password2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "passwords must match",
		})
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Username:      req.Username,
		Name:          req.Name,
		Email:         req.Email,
		FavoritePlace: req.FavoritePlace,
		Password:      req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleGet returns a single user's public profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user ID must be a positive integer",
		})
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Username       *string `json:"username"`
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	FavoritePlace  *string `json:"favoritePlace"`
	ProfilePicName *string `json:"profilePicName"`
}

// HandleUpdate applies a profile update to the target user.
//
// HTTP: PUT /api/users/{id}
// Auth: required; the service enforces self-or-admin.
//
// The request struct mirrors service.ProfileUpdate exactly: absent JSON
// fields stay nil and leave the stored value unchanged. Fields outside the
// allow-list have nowhere to land.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user ID must be a positive integer",
		})
		return
	}

	actor, _ := auth.UserFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), actor, id, service.ProfileUpdate{
		Username:       req.Username,
		Name:           req.Name,
		Email:          req.Email,
		FavoritePlace:  req.FavoritePlace,
		ProfilePicName: req.ProfilePicName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes a user account (self or admin).
//
// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user ID must be a positive integer",
		})
		return
	}

	actor, _ := auth.UserFromContext(r.Context())

	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setAdminRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

type setAdminResponse struct {
	Message string `json:"message"`
	Changed bool   `json:"changed"`
}

// HandleSetAdmin grants or revokes admin privileges.
//
// HTTP: PUT /api/users/{id}/admin
// Auth: admin only (RequireAdmin middleware + service check).
//
// A target already in the requested state returns 200 with changed=false
// and an informational message — not an error.
func (h *UserHandler) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user ID must be a positive integer",
		})
		return
	}

	actor, _ := auth.UserFromContext(r.Context())

	var req setAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	_, changed, err := h.users.SetAdmin(r.Context(), actor, id, req.IsAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "user admin privileges have been updated"
	if !changed {
		if req.IsAdmin {
			message = "user is already admin"
		} else {
			message = "user already is not an admin"
		}
	}

	writeJSON(w, http.StatusOK, setAdminResponse{Message: message, Changed: changed})
}

// HandleList returns the user roster for the admin area, newest first.
//
// HTTP: GET /api/users?limit=&offset=
// Auth: admin only.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.users.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
