package handlers

import (
	"github.com/prometheus/client_golang/prometheus"

	"medwarehouse/internal/runlog"
	"medwarehouse/pkg/database"
	"medwarehouse/pkg/logging"
)

var (
	postgres   database.PostgresConn
	clickhouse database.ClickHouseConn
	runs       *runlog.Store
	logger     logging.Logger
	metrics    *Metrics
)

// Metrics holds the Prometheus metrics the API handlers observe.
type Metrics struct {
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections *prometheus.GaugeVec
}

// Init initializes the handlers with database connections, logger, and metrics
func Init(pg database.PostgresConn, ch database.ClickHouseConn, log logging.Logger, m *Metrics) {
	postgres = pg
	clickhouse = ch
	runs = runlog.NewStore(pg, log)
	logger = log
	metrics = m
}
