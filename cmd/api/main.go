package main

import (
	"medwarehouse/internal/handlers"
	"medwarehouse/pkg/config"
	"medwarehouse/pkg/database"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/monitoring"
	"medwarehouse/pkg/server"
	"medwarehouse/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("warehouse-api")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting warehouse API (analytical queries over the marts)")

	dbURL := config.RequireEnv("DATABASE_URL")
	clickhouseHost := config.RequireEnv("CLICKHOUSE_HOST")
	clickhouseDB := config.GetEnv("CLICKHOUSE_DB", "medwarehouse")
	clickhouseUser := config.GetEnv("CLICKHOUSE_USER", "default")
	clickhousePassword := config.GetEnv("CLICKHOUSE_PASSWORD", "")

	// Postgres holds the run ledger the consumer gate reads
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	// ClickHouse holds the marts
	chConfig := database.DefaultClickHouseConfig()
	chConfig.Addr = []string{clickhouseHost}
	chConfig.Database = clickhouseDB
	chConfig.Username = clickhouseUser
	chConfig.Password = clickhousePassword
	clickhouse := database.MustConnectClickHouse(chConfig, logger)
	defer func() { _ = clickhouse.Close() }()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("warehouse-api", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("warehouse-api", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("postgres", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("clickhouse", monitoring.ClickHouseHealthCheck(clickhouse))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL":    dbURL,
		"CLICKHOUSE_HOST": clickhouseHost,
		"CLICKHOUSE_DB":   clickhouseDB,
	}))

	// Create query metrics
	serviceMetrics := &handlers.Metrics{}
	serviceMetrics.DBQueries, serviceMetrics.DBDuration, serviceMetrics.DBConnections = metricsCollector.CreateDatabaseMetrics()

	// Initialize handlers
	handlers.Init(db, clickhouse, logger, serviceMetrics)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "warehouse-api", healthChecker, metricsCollector)

	api := router.Group("/api")
	{
		api.GET("/reports/top-products", handlers.GetTopProducts)
		api.GET("/reports/visual-content", handlers.GetVisualContent)
		api.GET("/channels/:channel/activity", handlers.GetChannelActivity)
		api.GET("/search/messages", handlers.SearchMessages)
		api.GET("/runs/latest", handlers.GetLatestRun)
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("warehouse-api", "8080")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
