package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots", nil)
	req.Header.Set("X-Forwarded-For", ip)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw.Code
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2"))

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisRateLimiter(rdb, 2, time.Minute, "test")
	h := rl.Middleware(nil, false)(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9"))
}

func TestRedisRateLimiterFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	open := NewRedisRateLimiter(rdb, 1, time.Minute, "test").Middleware(nil, true)(okHandler())
	assert.Equal(t, http.StatusOK, hit(open, "10.0.0.1"))

	closed := NewRedisRateLimiter(rdb, 1, time.Minute, "test").Middleware(nil, false)(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, hit(closed, "10.0.0.1"))
}

func TestChainOrderAndRequestID(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var requestID string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = RequestIDFromContext(r.Context())
	}), mw("a"), nil, WithRequestID, mw("b"))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a", "b"}, order)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rw.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(t, http.StatusNoContent, rw.Code)
	assert.Equal(t, "https://app.example.com", rw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, DELETE", rw.Header().Get("Access-Control-Allow-Methods"))
}

func TestRequestIDRejectsUnsafeClientValues(t *testing.T) {
	h := WithRequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, "abc-123", rw.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.NotEqual(t, "bad id", rw.Header().Get(RequestIDHeader))
	assert.Len(t, rw.Header().Get(RequestIDHeader), 32)
}
