// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A run is a short-lived batch job, so collected metrics are pushed to a
// Pushgateway on Flush rather than exposed on a scrape endpoint. The job
// label doubles as the Pushgateway grouping key.
package prompush

import (
	"fmt"

	"clonegen/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // clonegen_step_total
	stepDuration *prometheus.SummaryVec // clonegen_step_duration_seconds
	tierCounter  *prometheus.CounterVec // clonegen_tier_items_total
	warnCounter  *prometheus.CounterVec // clonegen_warnings_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (usually the configured job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "clonegen"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of pipeline stages in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	tierCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.TierItems,
			Help: "Per-tier item counts (bases, clones, missing, skipped).",
		},
		[]string{"tier", "kind"},
	)
	warnCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.Warnings,
			Help: "Generator warnings by reason.",
		},
		[]string{"reason"},
	)

	for name, c := range map[string]prometheus.Collector{
		"step counter":  stepCounter,
		"step summary":  stepDuration,
		"tier counter":  tierCounter,
		"warning count": warnCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		tierCounter:  tierCounter,
		warnCounter:  warnCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.TierItems:
		if b.tierCounter == nil {
			return
		}
		b.tierCounter.WithLabelValues(labels["tier"], labels["kind"]).Add(delta)

	case metrics.Warnings:
		if b.warnCounter == nil {
			return
		}
		b.warnCounter.WithLabelValues(labels["reason"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
