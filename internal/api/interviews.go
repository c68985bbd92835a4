package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// InterviewHandler serves archived interviews.
type InterviewHandler struct {
	repo store.Repository
}

// NewInterviewHandler creates a new interview handler.
func NewInterviewHandler(repo store.Repository) *InterviewHandler {
	return &InterviewHandler{repo: repo}
}

// RegisterRoutes registers the interview routes.
func (h *InterviewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/interviews", h.List)
	r.Get("/interviews/{id}", h.Get)
}

type interviewSummary struct {
	*domain.Interview
	DurationSeconds float64 `json:"duration_seconds"`
}

// List returns the most recent interviews, newest first.
func (h *InterviewHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	interviews, err := h.repo.ListInterviews(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list interviews", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list interviews")
		return
	}

	out := make([]interviewSummary, 0, len(interviews))
	for _, iv := range interviews {
		out = append(out, interviewSummary{Interview: iv, DurationSeconds: iv.Duration().Seconds()})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"interviews": out})
}

// Get returns one interview with its transcript.
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	iv, err := h.repo.GetInterview(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "interview not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load interview", "id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load interview")
		return
	}
	JSON(w, http.StatusOK, interviewSummary{Interview: iv, DurationSeconds: iv.Duration().Seconds()})
}
