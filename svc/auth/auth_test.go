package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/svc/auth"
)

const testSecret = "test-secret-at-least-32-bytes-long"

func mintToken(t *testing.T, secret string, userID uuid.UUID, email string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"exp":   time.Now().Add(expiresIn).Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newVerifier() *auth.Verifier {
	return auth.NewVerifier(auth.Config{JWTSecret: testSecret, CookieName: "adai-access-token"})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	v := newVerifier()
	userID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		sess, err := v.Verify(mintToken(t, testSecret, userID, "owner@haulage.example", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, userID, sess.UserID)
		assert.Equal(t, "owner@haulage.example", sess.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		_, err := v.Verify(mintToken(t, testSecret, userID, "owner@haulage.example", -time.Hour))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		_, err := v.Verify(mintToken(t, "another-secret-another-secret-32", userID, "x@y.example", time.Hour))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		_, err := v.Verify("not.a.jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	v := newVerifier()
	userID := uuid.New()
	token := mintToken(t, testSecret, userID, "owner@haulage.example", time.Hour)

	t.Run("bearer header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/app", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		sess, err := v.FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, userID, sess.UserID)
	})

	t.Run("cookie", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/app", nil)
		r.AddCookie(&http.Cookie{Name: "adai-access-token", Value: token})
		sess, err := v.FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, userID, sess.UserID)
	})

	t.Run("no token", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/app", nil)
		_, err := v.FromRequest(r)
		assert.ErrorIs(t, err, auth.ErrNoToken)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	v := newVerifier()
	userID := uuid.New()
	token := mintToken(t, testSecret, userID, "owner@haulage.example", time.Hour)

	var captured *auth.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = auth.SessionFromContext(r.Context())
	})

	t.Run("attaches session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/app", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		v.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)
		require.NotNil(t, captured)
		assert.Equal(t, userID, captured.UserID)
	})

	t.Run("passes through unauthenticated", func(t *testing.T) {
		captured = nil
		r := httptest.NewRequest(http.MethodGet, "/app", nil)
		w := httptest.NewRecorder()
		v.Middleware(next).ServeHTTP(w, r)
		assert.Nil(t, captured)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("require auth rejects", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/companies", nil)
		w := httptest.NewRecorder()
		v.RequireAuth(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
