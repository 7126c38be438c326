package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHS256RoundTrip(t *testing.T) {
	token, err := SignHS256("user-1", "provider", time.Hour, "test-secret")
	require.NoError(t, err)

	claims, err := ParseAndVerifyHS256(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "provider", claims.Role)

	_, err = ParseAndVerifyHS256(token, "wrong-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAndUnsignedTokensRejected(t *testing.T) {
	expired, err := SignHS256("user-1", "", -time.Minute, "s")
	require.NoError(t, err)
	_, err = ParseAndVerifyHS256(expired, "s")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAndVerifyHS256(none, "s")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireUser(t *testing.T) {
	var seen string
	h := RequireUser("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	token, err := SignHS256("customer-9", "", time.Hour, "secret")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(UserIDHeader, "spoofed")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "customer-9", seen)
}

func TestRequireUserTrustsHeaderWithoutSecret(t *testing.T) {
	var seen string
	h := RequireUser("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "dev-user")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "dev-user", seen)
}
