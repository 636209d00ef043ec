package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"medwarehouse/pkg/monitoring"
)

// Metrics bundles the Prometheus collectors the runner feeds. A nil
// *Metrics disables instrumentation entirely.
type Metrics struct {
	Rows          *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	Checks        *prometheus.CounterVec
	Violations    *prometheus.GaugeVec
}

// NewMetrics registers the pipeline and validation metric sets on the
// given collector.
func NewMetrics(mc *monitoring.MetricsCollector) *Metrics {
	rows, stageDuration, runs := mc.CreatePipelineMetrics()
	checks, violations := mc.CreateValidationMetrics()
	return &Metrics{
		Rows:          rows,
		StageDuration: stageDuration,
		Runs:          runs,
		Checks:        checks,
		Violations:    violations,
	}
}
