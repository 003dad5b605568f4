// Package metrics exposes Prometheus counters for the flow engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowgate"

// Recorder groups the engine's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	resolutions *prometheus.CounterVec
	probes      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	reports     *prometheus.CounterVec
	gate        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Endpoint resolutions by path (first, reacquire) and outcome.",
			},
			[]string{"path", "outcome"},
		),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "probes_total",
				Help:      "Revalidation probes of a cached endpoint by outcome.",
			},
			[]string{"outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mode",
				Name:      "transitions_total",
				Help:      "Display mode transitions by target mode.",
			},
			[]string{"to"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "surface",
				Name:      "observed_urls_total",
				Help:      "Observed URL reports from the display surface by decision.",
			},
			[]string{"decision"},
		),
		gate: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "decisions_total",
				Help:      "Startup gating decisions by reason.",
			},
			[]string{"reason"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "request_duration_seconds",
				Help:      "Duration of resolver GET and HEAD requests.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(r.resolutions, r.probes, r.transitions, r.reports, r.gate, r.duration)
	}
	return r
}

// Handler serves the collectors registered in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (r *Recorder) Resolution(path, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(path, outcome).Inc()
	r.duration.WithLabelValues("GET").Observe(seconds)
}

func (r *Recorder) Probe(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.probes.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues("HEAD").Observe(seconds)
}

func (r *Recorder) Transition(to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(to).Inc()
}

func (r *Recorder) ObservedURL(decision string) {
	if r == nil {
		return
	}
	r.reports.WithLabelValues(decision).Inc()
}

func (r *Recorder) Gate(reason string) {
	if r == nil {
		return
	}
	r.gate.WithLabelValues(reason).Inc()
}
