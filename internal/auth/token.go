// Session token signing and validation.
//
// SESSION TOKEN DESIGN:
// A session token is a signed JWT carrying two things:
//   - "jti" (ID): a random session ID generated at login
//   - "sub" (Subject): the user's numeric ID
//
// The signature proves the token came from this server, but a valid
// signature alone is NOT enough to be logged in: the SessionManager keeps a
// server-side binding of session ID → user ID, and logout destroys that
// binding. A signed token whose session was logged out is dead immediately —
// no waiting for expiry, unlike a pure stateless JWT.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "microblog"

// defaultTokenTTL bounds how long a session can live even if never logged
// out. The server-side binding is the authoritative kill switch; expiry is
// the backstop.
const defaultTokenTTL = 24 * time.Hour

// TokenService signs and verifies session tokens.
//
// It holds the HMAC secret key used to sign and verify. The same secret
// must be used for both operations — keep it safe, rotate it periodically
// in production.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: defaultTokenTTL}, nil
}

// claims is the JWT payload. We only need the registered fields:
// ID (jti) holds the session ID, Subject holds the user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Sign creates a signed session token binding sessionID to userID.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for a single-server deployment.
func (s *TokenService) Sign(sessionID string, userID int64) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}

	return signed, nil
}

// Verify parses a token string and returns the (sessionID, userID) it binds.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is intact (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens from other apps sharing the secret)
//   - Algorithm is HS256 (prevents algorithm-confusion attacks)
func (s *TokenService) Verify(tokenStr string) (string, int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", 0, fmt.Errorf("auth: session token expired")
		}
		return "", 0, fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", 0, fmt.Errorf("auth: invalid session token claims")
	}
	if c.ID == "" {
		return "", 0, fmt.Errorf("auth: session token has no session ID")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return "", 0, fmt.Errorf("auth: session token has a bad subject %q", c.Subject)
	}

	return c.ID, userID, nil
}
