package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/store"
)

type fakeRepo struct {
	interviews map[string]*domain.Interview
	lastLimit  int
	listErr    error
	pingErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{interviews: make(map[string]*domain.Interview)}
}

func (f *fakeRepo) SaveInterview(_ context.Context, iv *domain.Interview) error {
	f.interviews[iv.ID] = iv
	return nil
}

func (f *fakeRepo) GetInterview(_ context.Context, id string) (*domain.Interview, error) {
	iv, ok := f.interviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return iv, nil
}

func (f *fakeRepo) ListInterviews(_ context.Context, limit int) ([]*domain.Interview, error) {
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Interview, 0, len(f.interviews))
	for _, iv := range f.interviews {
		out = append(out, iv)
	}
	return out, nil
}

func (f *fakeRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
func (f *fakeRepo) Ping(context.Context) error                               { return f.pingErr }
func (f *fakeRepo) Close() error                                             { return nil }

type fixedCounter int

func (c fixedCounter) Count() int { return int(c) }

func newRouter(repo store.Repository) http.Handler {
	r := chi.NewRouter()
	NewHealthHandler(repo, fixedCounter(2)).RegisterReady(r)
	r.Route("/api", NewInterviewHandler(repo).RegisterRoutes)
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetInterview(t *testing.T) {
	repo := newFakeRepo()
	start := time.Now()
	repo.interviews["abc"] = &domain.Interview{
		ID: "abc", Voice: "Ruth", StartedAt: start, EndedAt: start.Add(90 * time.Second),
		Report:     "Solid.",
		Transcript: []domain.Message{{Role: domain.RoleAssistant, Content: "hello"}},
	}

	w := serve(newRouter(repo), "/api/interviews/abc")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got struct {
		ID              string           `json:"id"`
		Report          string           `json:"report"`
		DurationSeconds float64          `json:"duration_seconds"`
		Transcript      []domain.Message `json:"transcript"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.ID != "abc" || got.Report != "Solid." || got.DurationSeconds != 90 || len(got.Transcript) != 1 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestGetInterviewNotFound(t *testing.T) {
	w := serve(newRouter(newFakeRepo()), "/api/interviews/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestListInterviewsLimit(t *testing.T) {
	repo := newFakeRepo()
	router := newRouter(repo)

	if w := serve(router, "/api/interviews"); w.Code != http.StatusOK || repo.lastLimit != defaultListLimit {
		t.Fatalf("default list: status %d limit %d", w.Code, repo.lastLimit)
	}
	if w := serve(router, "/api/interviews?limit=500"); w.Code != http.StatusOK || repo.lastLimit != maxListLimit {
		t.Fatalf("capped list: status %d limit %d", w.Code, repo.lastLimit)
	}
	if w := serve(router, "/api/interviews?limit=abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestListInterviewsFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("disk gone")

	if w := serve(newRouter(repo), "/api/interviews"); w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
}

func TestReady(t *testing.T) {
	repo := newFakeRepo()
	w := serve(newRouter(repo), "/readyz")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got["active_sessions"] != float64(2) {
		t.Errorf("active_sessions = %v", got["active_sessions"])
	}

	repo.pingErr = errors.New("locked")
	if w := serve(newRouter(repo), "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
}
