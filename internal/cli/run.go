package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"medwarehouse/internal/pipeline"
	"medwarehouse/internal/quality"
	"medwarehouse/internal/runlog"
	"medwarehouse/internal/source"
	"medwarehouse/internal/warehouse"
	"medwarehouse/pkg/database"
	"medwarehouse/pkg/models"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute a full pipeline run",
		Long: `Read raw rows from Postgres, rebuild every mart table in ClickHouse with a
full replace, run the validation suite, and record the run in the ops
ledger. Exits non-zero when a stage fails or any check fails.`,
		RunE: runPipeline,
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := pipeline.LoadConfig(logger)
	if err != nil {
		return err
	}

	pg, err := openPostgres(logger)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	chNative, err := database.ConnectClickHouseNative(clickHouseConfig(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = chNative.Close() }()

	ch, err := database.ConnectClickHouse(clickHouseConfig(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	ctx := cmd.Context()
	store := runlog.NewStore(pg, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg,
		source.NewReader(pg, logger),
		warehouse.NewMaterializer(chNative, logger),
		quality.NewChecker(ch, logger),
		store,
		logger,
		pipeline.NewMetrics(newMetricsCollector()))

	run, results, err := runner.Run(ctx)
	if run != nil {
		printRunReport(cmd.OutOrStdout(), run, results)
	}
	if err != nil {
		return err
	}
	if run.Status == models.RunStatusValidationFailed {
		return fmt.Errorf("run %s finished with failing checks", run.RunID)
	}
	return nil
}
