package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWrapOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mw("outer"), mw("middle"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner"}, calls)
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, seen)

	// A valid incoming id is reused.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-abc-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "trace-abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "trace-abc-123", seen)

	// A garbage id is replaced.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad\x01id")
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad\x01id", rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	do := func(ip string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retryAfter)

	// Another client has its own window.
	rec = do("10.0.0.2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_WindowReset(t *testing.T) {
	l := &limiter{
		cfg:     RateLimitConfig{Max: 1, Window: time.Minute},
		windows: make(map[string]*window),
	}

	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_, _, ok := l.allow("k", start)
	require.True(t, ok)
	_, _, ok = l.allow("k", start.Add(30*time.Second))
	assert.False(t, ok, "still inside the window")
	_, _, ok = l.allow("k", start.Add(time.Minute))
	assert.True(t, ok, "new window after expiry")

	l.evict(start.Add(3 * time.Minute))
	assert.Empty(t, l.windows)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:4321"
	assert.Equal(t, "192.0.2.9", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://shop.contoso.example"}})(okHandler())

	// Simple request from an allowed origin.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.contoso.example")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.contoso.example", rec.Header().Get("Access-Control-Allow-Origin"))

	// Disallowed origin gets no CORS headers.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// Preflight.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://shop.contoso.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, corsAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_Wildcard(t *testing.T) {
	h := CORS(CORSConfig{})(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_CredentialsEchoOrigin(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:     []string{"https://shop.contoso.example"},
		AllowCredentials: true,
	})(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.contoso.example")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://shop.contoso.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
