package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"medwarehouse/pkg/config"
	"medwarehouse/pkg/database"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/monitoring"
	"medwarehouse/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

// NewRootCmd returns the root command for the medwarehouse CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "medwarehouse",
		Short:         "medwarehouse CLI: load raw data, run the pipeline, inspect runs",
		Long:          "medwarehouse CLI: operator tool for the Telegram channel warehouse. Load scraped exports into the raw store, execute pipeline runs, re-run validation, and inspect run status.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.medwarehouse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.medwarehouse")
			viper.SetConfigName("config")
		}
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// Ignore missing config
	if err := viper.ReadInConfig(); err != nil {
		return
	}

	// Promote file settings into the environment so the shared env getters
	// and pipeline.LoadConfig see them. Real environment variables win.
	for _, key := range viper.AllKeys() {
		env := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if os.Getenv(env) == "" {
			_ = os.Setenv(env, viper.GetString(key))
		}
	}
}

// newLogger builds the command logger and loads .env, mirroring service
// startup order.
func newLogger() logging.Logger {
	logger := logging.NewLoggerWithService("medwarehouse")
	if verbose {
		logger.SetLevel(logging.DebugLevel)
	}
	config.LoadEnv(logger)
	return logger
}

func newMetricsCollector() *monitoring.MetricsCollector {
	return monitoring.NewMetricsCollector("medwarehouse", version.Version, version.GitCommit)
}

func openPostgres(logger logging.Logger) (database.PostgresConn, error) {
	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.GetEnv("DATABASE_URL", "")
	return database.Connect(dbConfig, logger)
}

func clickHouseConfig() database.ClickHouseConfig {
	cfg := database.DefaultClickHouseConfig()
	cfg.Addr = []string{config.GetEnv("CLICKHOUSE_HOST", "127.0.0.1:9000")}
	cfg.Database = config.GetEnv("CLICKHOUSE_DB", "medwarehouse")
	cfg.Username = config.GetEnv("CLICKHOUSE_USER", "default")
	cfg.Password = config.GetEnv("CLICKHOUSE_PASSWORD", "")
	return cfg
}
