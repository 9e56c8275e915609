package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/microblog/internal/auth"
)

// AuthHandler manages login, logout, and the current-user endpoint.
//
//	HandleLogin  → POST /auth/login   — verify credentials, set session cookie
//	HandleLogout → POST /auth/logout  — destroy the session, clear the cookie
//	HandleMe     → GET  /api/me       — return the logged-in user's profile
type AuthHandler struct {
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(sessions *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// sessionCookieTTL matches the token TTL — the cookie and the signed token
// expire together.
const sessionCookieTTL = 24 * time.Hour

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates a username/password pair.
//
// HTTP: POST /auth/login
// BODY: {"username": "sakif", "password": "..."}
//
// On success the session token is set as an HttpOnly cookie — JavaScript
// cannot read it, which keeps XSS from stealing sessions. On failure the
// client gets a single undifferentiated 401 regardless of whether the
// username or the password was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	token, user, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production (requires HTTPS)
	})

	writeJSON(w, http.StatusOK, user)
}

// HandleLogout destroys the session and clears the cookie.
//
// HTTP: POST /auth/logout
//
// WHY POST AND NOT GET?
// Logout is state-changing. A GET would be vulnerable to CSRF and to
// browsers pre-fetching the URL.
//
// Idempotent: logging out without a session (or twice) still returns 200 —
// the end state "not logged in" is the same either way.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		h.sessions.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "you have been logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: required (RequireAuth puts the user in the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "you must be logged in",
		})
		return
	}

	writeJSON(w, http.StatusOK, user)
}
