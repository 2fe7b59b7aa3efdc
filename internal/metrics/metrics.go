// Package metrics exposes Prometheus collectors for model calls and
// completed tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavelanni/examprep/internal/llm"
)

// Metrics implements llm.Recorder and practice.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	callsTotal     *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	tokensTotal    *prometheus.CounterVec
	testsCompleted prometheus.Counter
	testScore      prometheus.Histogram
}

// New registers the collectors with reg. When reg is also a
// prometheus.Gatherer, Handler serves it; otherwise Handler serves the
// default gatherer.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Metrics{
		gatherer: gatherer,

		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total number of model calls by template and outcome.",
		}, []string{"template", "outcome"}),

		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Latency of model calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"template"}),

		tokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total tokens consumed by direction.",
		}, []string{"template", "direction"}),

		testsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tests_completed_total",
			Help:      "Total number of graded practice tests.",
		}),

		testScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "test_score_percent",
			Help:      "Distribution of practice test scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
}

// ObserveCall records one model call.
func (m *Metrics) ObserveCall(purpose, _, outcome string, elapsed time.Duration, usage llm.Usage) {
	m.callsTotal.WithLabelValues(purpose, outcome).Inc()
	m.callDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
	if usage.InputTokens > 0 {
		m.tokensTotal.WithLabelValues(purpose, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		m.tokensTotal.WithLabelValues(purpose, "output").Add(float64(usage.OutputTokens))
	}
}

// TestCompleted records one graded test.
func (m *Metrics) TestCompleted(_ string, score float64) {
	m.testsCompleted.Inc()
	m.testScore.Observe(score)
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
