package quality

import (
	"context"
	"fmt"
	"time"

	"medwarehouse/pkg/database"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

// A Check counts rows violating one invariant; it passes when the count is
// zero. Checks comparing against the validation time take it as the single
// query argument.
type Check struct {
	Name     string
	Stage    string
	Query    string
	TakesNow bool
}

// Checks is the ordered suite run against the warehouse. Staging checks run
// once stg_messages is materialized, fact checks once the fact and bridge
// tables are. Adding a check is adding an entry here.
var Checks = []Check{
	{
		Name:  "stg_no_negative_view_counts",
		Stage: models.StageStaging,
		Query: "SELECT count() FROM stg_messages WHERE view_count < 0",
	},
	{
		Name:  "stg_no_negative_forward_counts",
		Stage: models.StageStaging,
		Query: "SELECT count() FROM stg_messages WHERE forward_count < 0",
	},
	{
		Name:     "stg_no_future_message_dates",
		Stage:    models.StageStaging,
		Query:    "SELECT count() FROM stg_messages WHERE message_at > ?",
		TakesNow: true,
	},
	{
		Name:  "fct_no_negative_view_counts",
		Stage: models.StageFact,
		Query: "SELECT count() FROM fct_messages WHERE view_count < 0",
	},
	{
		Name:  "fct_channel_keys_resolve",
		Stage: models.StageFact,
		Query: "SELECT count() FROM fct_messages WHERE channel_key NOT IN (SELECT channel_key FROM dim_channels)",
	},
	{
		Name:  "fct_date_keys_resolve",
		Stage: models.StageFact,
		Query: "SELECT count() FROM fct_messages WHERE date_key NOT IN (SELECT date_key FROM dim_dates)",
	},
	{
		Name:  "dim_channel_keys_unique",
		Stage: models.StageFact,
		Query: "SELECT count() FROM (SELECT channel_key FROM dim_channels GROUP BY channel_key HAVING count() > 1)",
	},
	{
		Name:  "dim_dates_gapless",
		Stage: models.StageFact,
		Query: "SELECT if(count() = 0, 0, dateDiff('day', min(full_date), max(full_date)) + 1 - uniqExact(full_date)) FROM dim_dates",
	},
	{
		Name:  "bridge_message_ids_resolve",
		Stage: models.StageFact,
		Query: "SELECT count() FROM fct_message_detections WHERE message_id NOT IN (SELECT message_id FROM fct_messages)",
	},
}

// Checker runs the validation suite over the warehouse through the SQL
// interface.
type Checker struct {
	db     database.ClickHouseConn
	logger logging.Logger
}

func NewChecker(db database.ClickHouseConn, logger logging.Logger) *Checker {
	return &Checker{db: db, logger: logger}
}

// RunChecks executes every check registered for the stage, in suite order.
// A failing check is reported in its result, never swallowed; only a query
// error fails the call itself.
func (c *Checker) RunChecks(ctx context.Context, stage string, now time.Time) ([]models.ValidationResult, error) {
	var results []models.ValidationResult
	for _, check := range Checks {
		if check.Stage != stage {
			continue
		}
		violations, err := c.countViolations(ctx, check, now)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", check.Name, err)
		}
		result := models.ValidationResult{
			CheckName:  check.Name,
			Stage:      check.Stage,
			Passed:     violations == 0,
			Violations: violations,
			CheckedAt:  now,
		}
		if violations > 0 {
			result.Detail = fmt.Sprintf("%d violating rows", violations)
			c.logger.WithFields(logging.Fields{
				"check":      check.Name,
				"stage":      check.Stage,
				"violations": violations,
			}).Warn("Validation check failed")
		}
		results = append(results, result)
	}
	return results, nil
}

func (c *Checker) countViolations(ctx context.Context, check Check, now time.Time) (int64, error) {
	var args []any
	if check.TakesNow {
		args = append(args, now)
	}
	var count int64
	if err := c.db.QueryRowContext(ctx, check.Query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
