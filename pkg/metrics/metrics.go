// Package metrics provides Prometheus instrumentation for completion streams.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream outcomes recorded on StreamsTotal.
const (
	OutcomeSuccess        = "success"
	OutcomeConfigError    = "config_error"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
)

var (
	// StreamsTotal tracks completed stream attempts by provider and outcome.
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papermind_streams_total",
			Help: "Total number of completion streams by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// StreamDuration tracks time from request to the end of the body.
	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "papermind_stream_duration_seconds",
			Help:    "Completion stream duration in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider", "model"},
	)

	// DeltasTotal tracks text deltas delivered to callers.
	DeltasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papermind_stream_deltas_total",
			Help: "Total number of text deltas decoded from completion streams.",
		},
		[]string{"provider"},
	)

	// MalformedFramesTotal tracks data frames skipped because their payload
	// did not parse.
	MalformedFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papermind_stream_malformed_frames_total",
			Help: "Total number of stream frames skipped as malformed.",
		},
		[]string{"provider"},
	)

	// ActiveStreams tracks the number of in-flight completion streams.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "papermind_active_streams",
			Help: "Number of currently in-flight completion streams.",
		},
	)
)

// StreamResult summarizes one finished stream attempt.
type StreamResult struct {
	Provider  string
	Model     string
	Outcome   string
	Deltas    int
	Malformed int
	Duration  time.Duration
}

// RecordStream records the counters and duration for a finished stream.
// Duration is only observed for streams that reached the body.
func RecordStream(r StreamResult) {
	StreamsTotal.WithLabelValues(r.Provider, r.Outcome).Inc()

	if r.Deltas > 0 {
		DeltasTotal.WithLabelValues(r.Provider).Add(float64(r.Deltas))
	}
	if r.Malformed > 0 {
		MalformedFramesTotal.WithLabelValues(r.Provider).Add(float64(r.Malformed))
	}

	if r.Outcome == OutcomeSuccess || r.Outcome == OutcomeTransportError {
		StreamDuration.WithLabelValues(r.Provider, r.Model).Observe(r.Duration.Seconds())
	}
}
