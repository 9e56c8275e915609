package auth

import (
	"context"
	"net/http"

	"github.com/sakif/microblog/internal/model"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string,
// ANY package that knows the string can read or shadow your value. A
// package-private type means only this package can read or write the
// current user in the context.
type contextKey string

const userKey contextKey = "user"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the session token from the cookie, resolves it through the
// SessionManager, and stores the *model.User in the request context. If the
// session is missing, invalid, or logged out, it returns 401 Unauthorized
// and stops the chain.
func RequireAuth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, sessions)
			if err != nil {
				http.Error(w, `{"error":"internal_error","message":"An internal error occurred"}`, http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, `{"error":"unauthenticated","message":"you must be logged in"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the user if a valid session is present but does NOT
// block anonymous requests.
//
// Use this on public routes like GET /api/posts where anyone can read, but
// a logged-in caller can ask for "my posts". Handlers check for the user via
// UserFromContext — (nil, false) means the request is anonymous.
func OptionalAuth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolveUser(r, sessions); err == nil && user != nil {
				ctx := context.WithValue(r.Context(), userKey, user)
				r = r.WithContext(ctx)
			}
			// Always continue — no 401 even without a session
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin enforces that the session belongs to an administrator.
// Stacks on top of RequireAuth-style resolution: 401 for anonymous callers,
// 403 for authenticated non-admins.
func RequireAdmin(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, sessions)
			if err != nil {
				http.Error(w, `{"error":"internal_error","message":"An internal error occurred"}`, http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, `{"error":"unauthenticated","message":"you must be logged in"}`, http.StatusUnauthorized)
				return
			}
			if !CanViewAdminArea(user) {
				http.Error(w, `{"error":"forbidden","message":"you do not have admin privileges"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request is anonymous.
//
// Usage in handlers:
//
//	actor, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // anonymous caller
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser reads the session cookie and resolves it to a user.
// Shared by the three middlewares. A missing cookie is simply anonymous.
func resolveUser(r *http.Request, sessions *SessionManager) (*model.User, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return nil, nil
	}
	return sessions.CurrentUser(r.Context(), cookie.Value)
}
