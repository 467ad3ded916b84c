package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gauges describing the last run. They are written to a
// node_exporter textfile because the process exits after each run.
type Metrics struct {
	registry *prometheus.Registry

	sources       prometheus.Gauge
	changed       prometheus.Gauge
	reloadSuccess prometheus.Gauge
	runSuccess    prometheus.Gauge
	lastRun       prometheus.Gauge
}

// New creates a Metrics bound to its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nginxguard_sources",
			Help: "Number of network specifications in the last aggregated source set",
		}),
		changed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nginxguard_last_run_changed",
			Help: "1 if the last run rewrote the whitelist",
		}),
		reloadSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nginxguard_last_reload_success",
			Help: "1 if the last attempted nginx reload succeeded",
		}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nginxguard_last_run_success",
			Help: "1 if the last run completed without a fatal error",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nginxguard_last_run_timestamp_seconds",
			Help: "Unix time of the last run",
		}),
	}
	m.registry.MustRegister(m.sources, m.changed, m.reloadSuccess, m.runSuccess, m.lastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSources records the size of the aggregated source set.
func (m *Metrics) ObserveSources(n int) { m.sources.Set(float64(n)) }

// ObserveChanged records whether the whitelist was rewritten.
func (m *Metrics) ObserveChanged(changed bool) { m.changed.Set(boolValue(changed)) }

// ObserveReload records a reload attempt.
func (m *Metrics) ObserveReload(ok bool) { m.reloadSuccess.Set(boolValue(ok)) }

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(ok bool, at time.Time) {
	m.runSuccess.Set(boolValue(ok))
	m.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
