// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a generator run.
//
// The global backend defaults to a no-op, so every Record* call is safe even
// when no metrics system is configured. Concrete systems live in subpackages
// (prompush, datadog) and are installed with SetBackend.
package metrics

import (
	"strconv"
	"time"
)

// Metric names shared by all backends.
const (
	StepTotal    = "clonegen_step_total"
	StepDuration = "clonegen_step_duration_seconds"
	TierItems    = "clonegen_tier_items_total"
	Warnings     = "clonegen_warnings_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration, labelled with success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordTier adds n to the per-tier item counter. kind is one of the tier
// summary fields: "bases", "clones", "missing", "skipped".
func RecordTier(job string, tier int, kind string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(TierItems, float64(n), Labels{
		"job":  job,
		"tier": strconv.Itoa(tier),
		"kind": kind,
	})
}

// RecordWarning counts one generator warning by reason.
func RecordWarning(job, reason string) {
	backend.IncCounter(Warnings, 1, Labels{
		"job":    job,
		"reason": reason,
	})
}
