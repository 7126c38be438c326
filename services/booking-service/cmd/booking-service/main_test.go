package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "sweep", "migrate", "provider"}, names)
}

func TestOpenStoreWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	store, checks, err := openStore(context.Background(), logger, true)
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, store)
	assert.Empty(t, checks)

	_, _, err = openStore(context.Background(), logger, false)
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestAuthMiddlewareNeedsSecretOrExplicitTrust(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	spoofed := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
		req.Header.Set(auth.UserIDHeader, "someone-else")
		return req
	}

	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_TRUST_HEADER", "")
	_, err := authMiddleware(logger)
	require.ErrorIs(t, err, errNoJWTSecret)

	t.Setenv("JWT_SECRET", "s3cret")
	mw, err := authMiddleware(logger)
	require.NoError(t, err)
	rw := httptest.NewRecorder()
	mw(ok).ServeHTTP(rw, spoofed())
	assert.Equal(t, http.StatusUnauthorized, rw.Code, "the header alone is not a credential")

	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_TRUST_HEADER", "true")
	mw, err = authMiddleware(logger)
	require.NoError(t, err)
	rw = httptest.NewRecorder()
	mw(ok).ServeHTTP(rw, spoofed())
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestRateLimiterSelection(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	mw, checks, closeFn := rateLimiter(logger)
	assert.Nil(t, mw)
	assert.Empty(t, checks)
	closeFn()

	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("REDIS_ADDR", "")
	mw, checks, closeFn = rateLimiter(logger)
	assert.NotNil(t, mw)
	assert.Empty(t, checks)
	closeFn()

	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	mw, checks, closeFn = rateLimiter(logger)
	defer closeFn()
	assert.NotNil(t, mw)
	require.Len(t, checks, 1)
	assert.NoError(t, checks[0].Check(context.Background()))
}
