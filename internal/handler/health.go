package handler

import (
	"net/http"

	"github.com/latticekit/api/internal/service"
)

// HealthHandler serves the orchestrator probe endpoints
type HealthHandler struct {
	health *service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health *service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// Healthz handles GET /healthz. It reports process liveness only and never
// touches dependencies, so a wedged database cannot get the pod restarted.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.health.Liveness())
}

// Readyz handles GET /readyz. Dependencies are probed concurrently; a failed
// critical check yields 503 so load balancers stop routing traffic here.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	report := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, report)
}
