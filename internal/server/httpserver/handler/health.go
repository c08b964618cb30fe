package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
//
// The service is ready once a gate is wired. Missing tenant secrets are
// reported but do not fail readiness, since enforcement may be off.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		h.writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
			Status: "not_ready",
			Time:   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	configured := h.gate.HasSecrets()
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:            "ready",
		Time:              time.Now().UTC().Format(time.RFC3339),
		SecretsConfigured: &configured,
		Enforcement:       string(h.enforcement),
	})
}
