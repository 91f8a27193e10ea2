package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Pinger is satisfied by the report repositories and the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts a Pinger with a short timeout.
type PingChecker struct {
	P       Pinger
	Timeout time.Duration
}

func (c PingChecker) Check(ctx context.Context) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.P.Ping(ctx)
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func runChecks(ctx context.Context, checkers map[string]HealthChecker) (map[string]CheckStatus, bool) {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := true
	checks := make(map[string]CheckStatus, len(checkers))
	for _, name := range names {
		if err := checkers[name].Check(ctx); err != nil {
			ok = false
			checks[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		checks[name] = CheckStatus{Status: "healthy"}
	}
	return checks, ok
}

// HealthHandler reports every dependency; 503 when any is down.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks, ok := runChecks(ctx, checkers)
		health := HealthStatus{Status: "healthy", Timestamp: time.Now().UTC(), Checks: checks}
		statusCode := http.StatusOK
		if !ok {
			health.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}
		writeJSON(w, statusCode, health)
	}
}

// ReadinessHandler is ready when the required dependencies answer.
func ReadinessHandler(required map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if _, ok := runChecks(ctx, required); !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "timestamp": time.Now().UTC()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "timestamp": time.Now().UTC()})
	}
}

// LivenessHandler creates a liveness check handler (simplest check)
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
