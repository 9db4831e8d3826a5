// Package metrics exposes replay counters and timings in Prometheus form.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
)

// OutcomeOK labels a successful replay. Failures are labelled with the
// lower-cased error code, or "error" when the error carries none.
const OutcomeOK = "ok"

var _ query.Observer = (*ReplayMetrics)(nil)

// ReplayMetrics records every deserialization that reaches replay.
type ReplayMetrics struct {
	replays  *prometheus.CounterVec
	steps    *prometheus.HistogramVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewReplayMetrics registers the replay collectors with reg.
func NewReplayMetrics(reg prometheus.Registerer) *ReplayMetrics {
	factory := promauto.With(reg)
	return &ReplayMetrics{
		replays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querychain_replays_total",
				Help: "Total number of chain replays by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		steps: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "querychain_replay_steps",
				Help:    "Number of steps in replayed chains",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"resource"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "querychain_replay_duration_seconds",
				Help:    "Chain replay latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "querychain_replays_in_flight",
				Help: "Number of replays currently running",
			},
		),
	}
}

// ReplayStarted implements query.Observer.
func (m *ReplayMetrics) ReplayStarted(ir.ResourceRef) {
	m.inFlight.Inc()
}

// ReplayFinished implements query.Observer.
func (m *ReplayMetrics) ReplayFinished(ref ir.ResourceRef, steps int, err error, elapsed time.Duration) {
	m.inFlight.Dec()

	resource := string(ref)
	if resource == "" {
		resource = "unknown"
	}
	m.replays.WithLabelValues(resource, Outcome(err)).Inc()
	m.steps.WithLabelValues(resource).Observe(float64(steps))
	m.duration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// Outcome maps a replay error to its label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := ir.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
