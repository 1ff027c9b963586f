package search

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/falasearch/fala-search/internal/content"
)

// Health states, from best to worst.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ComponentCheck probes one dependency. A failing critical component makes
// the service unhealthy; any other failure only degrades it.
type ComponentCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// HealthChecker provides health check capabilities.
type HealthChecker struct {
	svc    *Service
	checks []ComponentCheck
}

// NewHealthChecker creates a new health checker over the search service and
// any extra components (metrics store, event bus).
func NewHealthChecker(svc *Service, checks ...ComponentCheck) *HealthChecker {
	return &HealthChecker{
		svc:    svc,
		checks: checks,
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status     string               `json:"status"`
	Timestamp  time.Time            `json:"timestamp"`
	Version    string               `json:"version,omitempty"`
	Uptime     string               `json:"uptime,omitempty"`
	Components map[string]Component `json:"components"`
}

// Component represents a component's health.
type Component struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// Check performs a full health check. Component probes run concurrently.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     StatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]Component, len(h.checks)+1),
	}

	contentHealth := h.checkContent()
	status.Components["content"] = contentHealth
	if contentHealth.Status != StatusHealthy {
		status.Status = contentHealth.Status
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range h.checks {
		wg.Add(1)
		go func(c ComponentCheck) {
			defer wg.Done()
			comp := runCheck(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			status.Components[c.Name] = comp
			if comp.Status == StatusUnhealthy && c.Critical {
				status.Status = StatusUnhealthy
			} else if comp.Status != StatusHealthy && status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		}(c)
	}
	wg.Wait()

	return status
}

func runCheck(ctx context.Context, c ComponentCheck) Component {
	start := time.Now()
	err := c.Check(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return Component{
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Latency: latency,
		}
	}
	return Component{
		Status:  StatusHealthy,
		Message: "connected",
		Latency: latency,
	}
}

// checkContent reports whether there is anything to search.
func (h *HealthChecker) checkContent() Component {
	var coll *content.Collections
	if h.svc != nil {
		coll = h.svc.Collections()
	}
	if coll == nil {
		return Component{
			Status:  StatusUnhealthy,
			Message: "content not loaded",
		}
	}

	entries, verbs, _, topics := coll.Counts()
	if entries+verbs+topics == 0 {
		return Component{
			Status:  StatusDegraded,
			Message: "collections are empty",
		}
	}

	return Component{
		Status:  StatusHealthy,
		Message: "collections loaded",
	}
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	checker   *HealthChecker
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(checker *HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		startTime: time.Now(),
		version:   version,
	}
}

// HandleHealth handles GET /healthz (simple liveness check).
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady handles GET /readyz. Degraded is still ready.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.checker.Check(ctx)
	status.Version = h.version
	status.Uptime = time.Since(h.startTime).Round(time.Second).String()

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// HandleVersion handles GET /v1/version.
func (h *HealthHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"version":    h.version,
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"go_version": runtime.Version(),
	}
	if h.checker.svc != nil {
		if coll := h.checker.svc.Collections(); coll != nil && coll.Fingerprint() != "" {
			resp["content"] = coll.Fingerprint()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegisterRoutes registers health routes with the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /readyz", h.HandleReady)
	mux.HandleFunc("GET /v1/version", h.HandleVersion)
}
