package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTurn(t *testing.T) {
	m := New()

	m.RecordTurn("turn", time.Second, nil, "")
	m.RecordTurn("turn", time.Second, errors.New("boom"), "timed_out")

	if got := testutil.ToFloat64(m.Turns.WithLabelValues("turn", "success")); got != 1 {
		t.Errorf("success turns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Turns.WithLabelValues("turn", "failure")); got != 1 {
		t.Errorf("failed turns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues("timed_out")); got != 1 {
		t.Errorf("timed_out failures = %v, want 1", got)
	}
}

func TestSessionGauge(t *testing.T) {
	m := New()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed(time.Minute)

	if got := testutil.ToFloat64(m.ActiveSessions); got != 1 {
		t.Fatalf("active sessions = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordRejected("audio", "busy")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `interview_rejected_events_total{event="audio",reason="busy"} 1`) {
		t.Fatalf("metrics output missing rejected counter:\n%s", body)
	}
}
