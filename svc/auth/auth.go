// Package auth verifies access tokens minted by the managed auth provider.
// The platform never issues end-user credentials itself; it only validates
// the provider's HS256 JWTs carried in a cookie or bearer header and exposes
// the resulting Session to downstream handlers.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds token verification settings. The signing secret is shared
// with the auth provider.
type Config struct {
	JWTSecret  string `env:"AUTH_JWT_SECRET,required"`
	CookieName string `env:"AUTH_COOKIE_NAME" envDefault:"adai-access-token"`
}

// Session is the authenticated identity extracted from a verified token.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// claims mirrors the provider's token payload: subject holds the user id,
// email rides along as a custom claim.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Verifier validates provider-issued access tokens.
type Verifier struct {
	secret     []byte
	cookieName string
}

// NewVerifier creates a Verifier. Panics on an empty secret: running with
// unverifiable tokens is never acceptable.
func NewVerifier(cfg Config) *Verifier {
	if cfg.JWTSecret == "" {
		panic("auth: JWT secret is required")
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "adai-access-token"
	}
	return &Verifier{secret: []byte(cfg.JWTSecret), cookieName: cookieName}
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return &Session{UserID: userID, Email: c.Email}, nil
}

// FromRequest extracts and verifies the token from the Authorization header
// or the auth cookie, in that order.
func (v *Verifier) FromRequest(r *http.Request) (*Session, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw, found := strings.CutPrefix(h, "Bearer "); found {
			return v.Verify(raw)
		}
	}
	if c, err := r.Cookie(v.cookieName); err == nil && c.Value != "" {
		return v.Verify(c.Value)
	}
	return nil, ErrNoToken
}
