// Package health provides Kubernetes-style liveness and readiness endpoints.
// Checks run on demand when an endpoint is hit, each under its own timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. It returns nil when the
// component is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Health in the not-ready state; call SetReady(true) once the
// service has finished initialization.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check (is the process functioning).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check (can the service take
// traffic).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it to
// false before draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint serves /livez: 200 when all liveness checks pass, 503 with
// failure details otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.liveness
	h.mu.RUnlock()

	writeStatus(w, runChecks(r.Context(), checks))
}

// ReadyEndpoint serves /readyz: 200 when the service was marked ready and all
// readiness checks pass, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()

	failures := runChecks(r.Context(), checks)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func runChecks(ctx context.Context, checks []check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.fn(checkCtx)
		cancel()
		if err != nil {
			failures[c.name] = err.Error()
		}
	}
	return failures
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	resp := statusResponse{Status: "ok"}
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
