package handlers

import (
	"context"
	"net/http"

	"github.com/scrypster/kindred/internal/storage"
)

// HealthChecker reports whether the language-model backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatusHandler serves the health/status endpoint.
type StatusHandler struct {
	store  storage.CompanionStore
	health HealthChecker
}

// NewStatusHandler creates a new StatusHandler. health may be nil when no
// model backend is configured.
func NewStatusHandler(store storage.CompanionStore, health HealthChecker) *StatusHandler {
	return &StatusHandler{store: store, health: health}
}

// GetStatus handles GET /api/status. The endpoint reports healthy even when
// the model backend is down; chat degrades to fallbacks, not errors.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read status")
		return
	}

	llmStatus := "not configured"
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			llmStatus = "unreachable"
		} else {
			llmStatus = "ok"
		}
	}

	respondJSON(w, http.StatusOK, StatusResponse{
		Success:    true,
		Status:     "healthy",
		Companions: count,
		LLM:        llmStatus,
	})
}
