// Session manager: maps live session tokens to authenticated users.
//
// SESSION LIFECYCLE:
//
//	Unauthenticated → (Login success) → Authenticated → (Logout) → Unauthenticated
//
// A failed login leaves the state untouched. Each successful login mints an
// independent session, so concurrent logins for the same username never
// contend — there is no "one session per user" rule.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// SessionManager authenticates users and tracks their live sessions.
//
// The bindings map is the server-side source of truth for "logged in":
// session ID → user ID. Tokens are signed (see token.go) but a signature
// without a live binding is worthless, which is what makes Logout take
// effect immediately.
type SessionManager struct {
	users     repository.UserRepository
	passwords *PasswordService
	tokens    *TokenService
	logger    *slog.Logger

	mu       sync.RWMutex
	bindings map[string]int64 // session ID → user ID
}

// NewSessionManager creates a SessionManager with all required dependencies.
// Wired in the composition root (internal/server), like every other component.
func NewSessionManager(
	users repository.UserRepository,
	passwords *PasswordService,
	tokens *TokenService,
	logger *slog.Logger,
) *SessionManager {
	return &SessionManager{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
		bindings:  make(map[string]int64),
	}
}

// Login authenticates a username/password pair and returns a session token.
//
// FAILURE SHAPE:
// An unknown username and a wrong password both return the same
// apperror.ErrUnauthenticated — callers (and attackers probing the login
// form) cannot tell which half was wrong.
//
// A corrupt stored hash is the one exception: it propagates as
// ErrCorruptHash and is logged at Error level, because it means the user
// row is damaged, not that the password was wrong.
func (m *SessionManager) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, apperror.InvalidCredentials()
		}
		return "", nil, fmt.Errorf("auth: looking up user %q: %w", username, err)
	}

	ok, err := m.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		// ErrCorruptHash — the store is damaged. Never swallow this as a
		// failed login.
		m.logger.Error("stored password hash is unreadable",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return "", nil, apperror.CorruptHash(user.ID)
	}
	if !ok {
		return "", nil, apperror.InvalidCredentials()
	}

	// Mint an independent session: random ID, bound server-side, signed.
	sessionID := xid.New().String()

	m.mu.Lock()
	m.bindings[sessionID] = user.ID
	m.mu.Unlock()

	token, err := m.tokens.Sign(sessionID, user.ID)
	if err != nil {
		// Roll back the binding — a session nobody holds a token for is
		// just a leak.
		m.mu.Lock()
		delete(m.bindings, sessionID)
		m.mu.Unlock()
		return "", nil, fmt.Errorf("auth: issuing session token for user %d: %w", user.ID, err)
	}

	m.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("sessionID", sessionID),
	)

	return token, user, nil
}

// Logout destroys the session binding for the given token.
//
// Idempotent by design: logging out an already-dead, malformed, or missing
// token is a no-op, not an error. There is nothing useful a caller could do
// with a logout failure anyway.
func (m *SessionManager) Logout(token string) {
	sessionID, _, err := m.tokens.Verify(token)
	if err != nil {
		return
	}

	m.mu.Lock()
	_, existed := m.bindings[sessionID]
	delete(m.bindings, sessionID)
	m.mu.Unlock()

	if existed {
		m.logger.Info("user logged out", slog.String("sessionID", sessionID))
	}
}

// CurrentUser resolves a session token to the authenticated user.
//
// Returns (nil, nil) for any token that doesn't resolve — missing, expired,
// tampered, or logged out. "Not logged in" is a normal state, not an error.
// A non-nil error means the user lookup itself failed.
func (m *SessionManager) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	sessionID, userID, err := m.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}

	m.mu.RLock()
	boundID, live := m.bindings[sessionID]
	m.mu.RUnlock()

	if !live || boundID != userID {
		return nil, nil
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// The account was deleted while the session was live. Kill the
			// orphaned binding so the dead session stops hitting the store.
			m.mu.Lock()
			delete(m.bindings, sessionID)
			m.mu.Unlock()
			return nil, nil
		}
		return nil, fmt.Errorf("auth: resolving session user %d: %w", userID, err)
	}

	return user, nil
}

// IsAdmin reports whether the token resolves to an administrator.
// False for anonymous, invalid, or non-admin sessions.
func (m *SessionManager) IsAdmin(ctx context.Context, token string) bool {
	user, err := m.CurrentUser(ctx, token)
	if err != nil || user == nil {
		return false
	}
	return user.IsAdmin
}

// ActiveSessions returns the number of live bindings. Used by tests and
// the health endpoint.
func (m *SessionManager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bindings)
}
