package loader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"medwarehouse/pkg/monitoring"
)

// Metrics carries the loader collectors. A nil *Metrics disables
// instrumentation.
type Metrics struct {
	Records       *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec
}

// NewMetrics registers the loader metric set on the given collector.
func NewMetrics(mc *monitoring.MetricsCollector) *Metrics {
	records, duration := mc.CreateLoaderMetrics()
	return &Metrics{Records: records, BatchDuration: duration}
}

func (m *Metrics) observeRecords(source, outcome string, n int64) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(source, outcome).Add(float64(n))
}

func (m *Metrics) observeBatch(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
