package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/streamhub/backend/internal/logging"
)

const readinessTimeout = 2 * time.Second

// HealthHandler responds with service liveness and readiness.
type HealthHandler struct {
	// Ready probes the backing store. Nil means the service is always ready.
	Ready func(ctx context.Context) error
}

// Handle implements GET /healthz.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness implements GET /readyz.
func (h HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.Ready != nil {
		probeCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		defer cancel()
		if err := h.Ready(probeCtx); err != nil {
			logging.FromContext(ctx).Warn("readiness probe failed", "error", err)
			respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}
