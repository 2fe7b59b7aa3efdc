package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pavelanni/examprep/internal/llm"
)

func TestObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test")

	m.ObserveCall("grade-answer", "mock", llm.OutcomeOK, 2*time.Second, llm.Usage{InputTokens: 100, OutputTokens: 40})
	m.ObserveCall("grade-answer", "mock", llm.OutcomeOK, time.Second, llm.Usage{InputTokens: 10, OutputTokens: 5})
	m.ObserveCall("grade-answer", "mock", llm.OutcomeRateLimited, time.Second, llm.Usage{})

	if got := testutil.ToFloat64(m.callsTotal.WithLabelValues("grade-answer", llm.OutcomeOK)); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.callsTotal.WithLabelValues("grade-answer", llm.OutcomeRateLimited)); got != 1 {
		t.Errorf("rate limited calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tokensTotal.WithLabelValues("grade-answer", "input")); got != 110 {
		t.Errorf("input tokens = %v, want 110", got)
	}
	if got := testutil.ToFloat64(m.tokensTotal.WithLabelValues("grade-answer", "output")); got != 45 {
		t.Errorf("output tokens = %v, want 45", got)
	}
}

func TestTestCompleted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test")

	m.TestCompleted("Biology", 80)
	m.TestCompleted("Physics", 60)

	if got := testutil.ToFloat64(m.testsCompleted); got != 2 {
		t.Errorf("tests completed = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.testScore); n != 1 {
		t.Errorf("score histogram series = %d, want 1", n)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "examprep")
	m.TestCompleted("Biology", 90)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "examprep_tests_completed_total 1") {
		t.Errorf("metrics output lacks tests counter:\n%s", body)
	}
}
