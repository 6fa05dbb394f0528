package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the Prometheus collectors the dispatch pipeline reports
// into. One Recorder is shared by all concurrent dispatches.
type Recorder struct {
	registry  *prometheus.Registry
	processed *prometheus.CounterVec
	attempts  *prometheus.HistogramVec
	inFlight  prometheus.Gauge
}

// NewRecorder constructs a Recorder with its own registry so tests can run
// in isolation.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "dispatch_total",
			Help:      "Dispatch requests processed, by channel, priority and outcome.",
		}, []string{"channel", "priority", "outcome"}),
		attempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notification",
			Name:      "dispatch_attempts",
			Help:      "Send attempts consumed per dispatch.",
			Buckets:   []float64{1, 2, 3, 5, 8},
		}, []string{"channel"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "notification",
			Name:      "dispatch_in_flight",
			Help:      "Dispatches currently running.",
		}),
	}

	registry.MustRegister(r.processed, r.attempts, r.inFlight)
	return r
}

// ObserveDispatch records one finished dispatch.
func (r *Recorder) ObserveDispatch(channel, priority string, succeeded bool, attempts int) {
	outcome := "failure"
	if succeeded {
		outcome = "success"
	}
	r.processed.WithLabelValues(channel, priority, outcome).Inc()
	if attempts > 0 {
		r.attempts.WithLabelValues(channel).Observe(float64(attempts))
	}
}

// DispatchStarted marks a dispatch as in flight; the returned func marks it
// finished.
func (r *Recorder) DispatchStarted() func() {
	r.inFlight.Inc()
	return r.inFlight.Dec
}

// Handler exposes the registry over HTTP for Prometheus scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, used by tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
