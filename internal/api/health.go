package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sujithrt/interview-prep/internal/store"
)

const readinessTimeout = 5 * time.Second

// SessionCounter reports the number of live interview sessions.
type SessionCounter interface {
	Count() int
}

// HealthHandler handles readiness checks.
type HealthHandler struct {
	repo     store.Repository
	sessions SessionCounter
}

// NewHealthHandler creates a new health handler. sessions may be nil.
func NewHealthHandler(repo store.Repository, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{repo: repo, sessions: sessions}
}

// Ready returns the status of the API and its dependencies.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	if h.sessions != nil {
		status["active_sessions"] = h.sessions.Count()
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Readiness check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// RegisterReady registers the readiness route.
func (h *HealthHandler) RegisterReady(r chi.Router) {
	r.Get("/readyz", h.Ready)
}
