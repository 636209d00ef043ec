package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"medwarehouse/pkg/models"
)

func statusWord(status string) string {
	switch status {
	case models.RunStatusSucceeded:
		return color.GreenString(status)
	case models.RunStatusValidationFailed:
		return color.YellowString(status)
	case models.RunStatusFailed:
		return color.RedString(status)
	default:
		return status
	}
}

func checkWord(passed bool) string {
	if passed {
		return color.GreenString("pass")
	}
	return color.RedString("FAIL")
}

// printRunReport renders one run with its stage counts and validation
// results in the layout every run-reading command shares.
func printRunReport(out io.Writer, run *models.PipelineRun, results []models.ValidationResult) {
	fmt.Fprintf(out, "Run %s: %s\n", run.RunID, statusWord(run.Status))
	fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished: %s (%s)\n",
			run.FinishedAt.Format(time.RFC3339),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", color.RedString(run.Error))
	}

	fmt.Fprintln(out)
	c := run.Counts
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS\tEXCLUDED")
	fmt.Fprintf(w, "raw messages\t%d\t\n", c.RawMessages)
	fmt.Fprintf(w, "stg_messages\t%d\t%d dropped, %d rejected\n",
		c.StagedMessages, c.DroppedNonMessages, c.RejectedRows)
	fmt.Fprintf(w, "dim_dates\t%d\t\n", c.DimDatesRows)
	fmt.Fprintf(w, "dim_channels\t%d\t\n", c.DimChannelsRows)
	fmt.Fprintf(w, "fct_messages\t%d\t%d missing channel, %d missing date\n",
		c.FactRows, c.FactsMissingChannel, c.FactsMissingDate)
	fmt.Fprintf(w, "fct_message_detections\t%d\t%d unmatched of %d read\n",
		c.BridgeRows, c.DetectionsUnmatched, c.DetectionsRead)
	_ = w.Flush()

	if len(results) > 0 {
		fmt.Fprintln(out)
		printValidationResults(out, results)
	}
}

func printValidationResults(out io.Writer, results []models.ValidationResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTAGE\tRESULT\tVIOLATIONS")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", res.CheckName, res.Stage, checkWord(res.Passed), res.Violations)
	}
	_ = w.Flush()
}
