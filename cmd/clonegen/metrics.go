package main

import (
	"log"

	"clonegen/internal/config"
	"clonegen/internal/metrics"
	"clonegen/internal/metrics/datadog"
	"clonegen/internal/metrics/prompush"
)

// defaultStatsdAddr is the local DogStatsD agent.
const defaultStatsdAddr = "127.0.0.1:8125"

// setupMetrics installs the configured backend and returns the flush hook.
// A backend that fails to initialize leaves metrics disabled.
func setupMetrics(cfg config.Config) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		url := cfg.Metrics.PushgatewayURL
		b, err = prompush.NewBackend(cfg.Job, url)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", url, cfg.Metrics.Backend, cfg.Job)
		}
	case "datadog":
		addr := cfg.Metrics.StatsdAddr
		if addr == "" {
			addr = defaultStatsdAddr
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "clonegen.",
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, cfg.Metrics.Backend, cfg.Job)
		}
	case "", "none":
		if cfg.Verbose {
			log.Printf("metrics: disabled (backend=%q)", cfg.Metrics.Backend)
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", cfg.Metrics.Backend, err)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
