package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetTenantFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"acme": "k-acme", "beta": "k-beta"})(ok)

	cases := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"public path", "/health", "", http.StatusOK, ""},
		{"missing header", "/v1/acme/analyses", "", http.StatusUnauthorized, ""},
		{"bearer", "/v1/acme/analyses", "Bearer k-acme", http.StatusOK, "acme"},
		{"bare key", "/v1/beta/analyses", "k-beta", http.StatusOK, "beta"},
		{"wrong key", "/v1/acme/analyses", "Bearer nope", http.StatusUnauthorized, ""},
		{"empty bearer", "/v1/acme/analyses", "Bearer ", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAPIKeyAuthDisabledWithoutKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	APIKeyAuth(nil)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/acme/analyses", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTenantMatch(t *testing.T) {
	r := chi.NewRouter()
	r.Use(APIKeyAuth(map[string]string{"acme": "k-acme"}))
	r.Route("/v1/{tenant}", func(r chi.Router) {
		r.Use(RequireTenantMatch)
		r.Get("/ping", ok)
	})

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer k-acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do("/v1/acme/ping"))
	assert.Equal(t, http.StatusForbidden, do("/v1/other/ping"))
	assert.Equal(t, http.StatusBadRequest, do("/v1/bad!tenant/ping"))
}

func TestTokenBucket(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tb := NewTokenBucket(2, 0.5, now)

	assert.True(t, tb.Allow(now))
	assert.True(t, tb.Allow(now))
	assert.False(t, tb.Allow(now))
	assert.Equal(t, 2, tb.RetryAfter())

	// half a token per second: one second is not enough, two are
	assert.False(t, tb.Allow(now.Add(time.Second)))
	assert.True(t, tb.Allow(now.Add(2*time.Second)))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 0.001)
	defer limiter.Close()
	h := RateLimit(limiter)(ok)

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// health is never limited
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Close()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(time.Hour)
	limiter.Allow("b")
	limiter.evictIdle(10 * time.Minute)

	assert.NotContains(t, limiter.buckets, "a")
	assert.Contains(t, limiter.buckets, "b")
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyses", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, e.Level)
	fields := e.ContextMap()
	assert.EqualValues(t, 502, fields["status"])
	assert.EqualValues(t, 8, fields["bytes"])
	assert.Equal(t, "10.1.2.3", fields["ip"])
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/{tenant}/x", ok)
	var pattern string
	r.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			pattern = routePattern(r)
		})
	}).Get("/v1/{tenant}/y", ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/acme/y", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/v1/{tenant}/y", pattern)
	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthAndReadiness(t *testing.T) {
	up := PingChecker{P: pingFunc(func(context.Context) error { return nil })}
	down := PingChecker{P: pingFunc(func(context.Context) error { return errors.New("connection refused") })}

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"database": up})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"database": up, "redis": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	ReadinessHandler(map[string]HealthChecker{"database": down})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")

	rec = httptest.NewRecorder()
	LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateTenantID("acme_01"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("a/b"))

	assert.NoError(t, ValidateStoreID("store-1.main"))
	assert.Error(t, ValidateStoreID("../x y"))

	assert.NoError(t, ValidateReportID("3f2b8c1e-9a4d-4e2b-8c1d-0a1b2c3d4e5f"))
	assert.Error(t, ValidateReportID("rep-1"))

	mime, err := ValidateUploadType("image/JPEG; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	_, err = ValidateUploadType("application/pdf")
	assert.Error(t, err)

	assert.Equal(t, "a\tb", SanitizeString("  a\x00\tb\x07 "))
	assert.Equal(t, 20, ValidatePageSize(0))
	assert.Equal(t, 100, ValidatePageSize(500))
	assert.Equal(t, 1, ValidatePage(-3))
}
