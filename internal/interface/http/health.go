package http

import (
	"context"
	"net/http"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports the health of the server's dependencies.
type HealthChecker interface {
	// Check probes every dependency and returns a result per component.
	Check(ctx context.Context) []ComponentHealth
}

// ComponentHealth is the probe result of one dependency.
type ComponentHealth struct {
	Name string `json:"name"`
	// Status is "up" or "down".
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	// Critical components gate readiness; non-critical ones (the cache)
	// only show up in the report.
	Critical bool `json:"critical"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// CompositeHealthChecker aggregates named dependency probes.
type CompositeHealthChecker struct {
	checks []namedCheck
}

type namedCheck struct {
	name     string
	critical bool
	fn       CheckFunc
}

// NewCompositeHealthChecker creates an empty checker.
func NewCompositeHealthChecker() *CompositeHealthChecker {
	return &CompositeHealthChecker{}
}

// Add registers a critical dependency probe.
func (c *CompositeHealthChecker) Add(name string, fn CheckFunc) *CompositeHealthChecker {
	c.checks = append(c.checks, namedCheck{name: name, critical: true, fn: fn})
	return c
}

// AddOptional registers a non-critical dependency probe.
func (c *CompositeHealthChecker) AddOptional(name string, fn CheckFunc) *CompositeHealthChecker {
	c.checks = append(c.checks, namedCheck{name: name, critical: false, fn: fn})
	return c
}

// Check probes every registered dependency.
func (c *CompositeHealthChecker) Check(ctx context.Context) []ComponentHealth {
	results := make([]ComponentHealth, 0, len(c.checks))
	for _, check := range c.checks {
		result := ComponentHealth{Name: check.name, Status: "up", Critical: check.critical}
		if err := check.fn(ctx); err != nil {
			result.Status = "down"
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// healthResponse is the payload of GET /health.
type healthResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Components []ComponentHealth `json:"components,omitempty"`
}

// handleHealth handles GET /health: a full dependency report.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Uptime: s.Uptime().Round(time.Second).String()}
	status := http.StatusOK

	if s.deps.HealthChecker != nil {
		resp.Components = s.deps.HealthChecker.Check(ctx)
		for _, c := range resp.Components {
			if c.Status != "up" && c.Critical {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	writeJSON(w, status, resp)
}

// handleReady handles GET /ready: readiness gates on critical dependencies.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.deps.HealthChecker != nil {
		for _, c := range s.deps.HealthChecker.Check(ctx) {
			if c.Status != "up" && c.Critical {
				writeJSONError(w, http.StatusServiceUnavailable, "not_ready", c.Name+" is unavailable")
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles GET /live: process liveness only.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
