package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"medwarehouse/internal/pipeline"
	"medwarehouse/internal/quality"
	"medwarehouse/internal/runlog"
	"medwarehouse/pkg/database"
	"medwarehouse/pkg/models"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Re-run the validation suite against the current marts",
		Long: `Execute every data quality check against the warehouse as it stands,
without rebuilding anything, and record the outcome as its own run in the
ops ledger. Exits non-zero when any check fails.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	runner := pipeline.NewRunner(cfg, nil, nil,
		quality.NewChecker(ch, logger),
		store,
		logger,
		pipeline.NewMetrics(newMetricsCollector()))

	run, results, err := runner.Validate(ctx)
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
