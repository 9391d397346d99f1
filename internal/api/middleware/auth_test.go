package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/pkg/config"
)

func signed(t *testing.T, a *Authenticator, userID string, expires time.Time) string {
	t.Helper()
	token, err := a.Sign(Claims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
	})
	require.NoError(t, err)
	return token
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(UserIDFromContext(r.Context())))
}

func TestOptionalAuth(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "gotham"})
	handler := a.OptionalAuth(echoUser)

	t.Run("valid token attaches user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, a, "u1", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, "u1", w.Body.String())
	})

	t.Run("missing token stays anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/api/org", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("expired token stays anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, a, "u1", time.Now().Add(-time.Hour)))
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Empty(t, w.Body.String())
	})
}

func TestRequireAuth(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "gotham"})
	handler := a.RequireAuth(echoUser)

	t.Run("rejects missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/api/org/p1/like", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"authentication required"}`, w.Body.String())
	})

	t.Run("rejects foreign issuer", func(t *testing.T) {
		other := NewAuthenticator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "elsewhere"})
		req := httptest.NewRequest(http.MethodPost, "/api/org/p1/like", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, other, "u1", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		other := NewAuthenticator(config.AuthConfig{JWTSecret: "guess", Issuer: "gotham"})
		req := httptest.NewRequest(http.MethodPost, "/api/org/p1/like", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, other, "u1", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/org/p1/like", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, a, "u7", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u7", w.Body.String())
	})
}
