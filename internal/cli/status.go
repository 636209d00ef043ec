package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medwarehouse/internal/runlog"
	"medwarehouse/pkg/api/analytics"
	"medwarehouse/pkg/models"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest pipeline run",
		Example: `  # Human-readable report
  medwarehouse status

  # Machine-readable JSON output
  medwarehouse status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	logger := newLogger()

	pg, err := openPostgres(logger)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	store := runlog.NewStore(pg, logger)
	run, results, err := store.Latest(cmd.Context())
	if errors.Is(err, runlog.ErrNoRuns) {
		fmt.Fprintln(cmd.OutOrStdout(), "No pipeline runs recorded yet.")
		return nil
	}
	if err != nil {
		return err
	}
	if results == nil {
		results = []models.ValidationResult{}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(analytics.RunStatusResponse{Run: *run, ValidationResults: results})
	}

	printRunReport(cmd.OutOrStdout(), run, results)
	return nil
}
