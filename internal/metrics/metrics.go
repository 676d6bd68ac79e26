// Package metrics holds the Prometheus collectors of the status monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "statusboard"
)

var (
	probeDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// Probe Metrics
	ProbeUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "probe_up",
		Help:      "Whether the last probe of a server succeeded (1) or failed (0).",
	}, []string{"server", "probe"})

	ProbeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Time taken for a single probe to complete.",
		Buckets:   probeDurationBuckets,
	}, []string{"server", "probe"})

	ProbeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_runs_total",
		Help:      "Count of probe executions.",
	}, []string{"server", "probe", "status"})

	ProbeCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_cycle_duration_seconds",
		Help:      "Time taken to probe every configured server once.",
		Buckets:   prometheus.DefBuckets,
	})

	// Push Metrics
	PushClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "push_clients",
		Help:      "Number of connected push channel clients.",
	})

	PushMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_messages_total",
		Help:      "Count of snapshots written to push channel clients.",
	}, []string{"status"})
)

// ObserveProbe records the outcome of one probe.
func ObserveProbe(server, probe string, up bool, seconds float64) {
	status := "success"
	value := 1.0
	if !up {
		status = "failure"
		value = 0
	}
	ProbeUp.WithLabelValues(server, probe).Set(value)
	ProbeDuration.WithLabelValues(server, probe).Observe(seconds)
	ProbeRunsTotal.WithLabelValues(server, probe, status).Inc()
}
