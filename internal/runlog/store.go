package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medwarehouse/pkg/database"
	sqlschema "medwarehouse/pkg/database/sql"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

// ErrNoRuns is returned by Latest when the ledger is empty.
var ErrNoRuns = errors.New("no pipeline runs recorded")

// Store persists pipeline runs and validation results to the ops schema in
// Postgres. It is the authoritative record consumers consult before
// trusting the warehouse.
type Store struct {
	db     database.PostgresConn
	logger logging.Logger
}

func NewStore(db database.PostgresConn, logger logging.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the ops schema and ledger tables when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements, err := sqlschema.Statements("postgres/ops.sql")
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create ops schema: %w", err)
		}
	}
	return nil
}

const startRunQuery = `
INSERT INTO ops.pipeline_runs (run_id, started_at, status)
VALUES ($1, $2, $3)`

// StartRun records a new run in the running state.
func (s *Store) StartRun(ctx context.Context, run models.PipelineRun) error {
	if _, err := s.db.ExecContext(ctx, startRunQuery, run.RunID, run.StartedAt, run.Status); err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

const finishRunQuery = `
UPDATE ops.pipeline_runs
SET finished_at = $2, status = $3, error = NULLIF($4, ''),
    raw_messages = $5, staged_messages = $6, dropped_non_messages = $7,
    rejected_rows = $8, dim_dates_rows = $9, dim_channels_rows = $10,
    fact_rows = $11, facts_missing_channel = $12, facts_missing_date = $13,
    detections_read = $14, bridge_rows = $15, detections_unmatched = $16
WHERE run_id = $1`

// FinishRun stamps the terminal status and counters onto a run.
func (s *Store) FinishRun(ctx context.Context, run models.PipelineRun) error {
	c := run.Counts
	_, err := s.db.ExecContext(ctx, finishRunQuery,
		run.RunID, run.FinishedAt, run.Status, run.Error,
		c.RawMessages, c.StagedMessages, c.DroppedNonMessages,
		c.RejectedRows, c.DimDatesRows, c.DimChannelsRows,
		c.FactRows, c.FactsMissingChannel, c.FactsMissingDate,
		c.DetectionsRead, c.BridgeRows, c.DetectionsUnmatched)
	if err != nil {
		return fmt.Errorf("update pipeline run: %w", err)
	}
	return nil
}

const saveResultQuery = `
INSERT INTO ops.validation_results (run_id, check_name, stage, passed, violations, detail, checked_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
ON CONFLICT (run_id, check_name) DO UPDATE
SET passed = EXCLUDED.passed, violations = EXCLUDED.violations,
    detail = EXCLUDED.detail, checked_at = EXCLUDED.checked_at`

// SaveValidationResults upserts one row per executed check.
func (s *Store) SaveValidationResults(ctx context.Context, runID string, results []models.ValidationResult) error {
	for _, res := range results {
		if _, err := s.db.ExecContext(ctx, saveResultQuery,
			runID, res.CheckName, res.Stage, res.Passed, res.Violations, res.Detail, res.CheckedAt); err != nil {
			return fmt.Errorf("insert validation result %s: %w", res.CheckName, err)
		}
	}
	return nil
}

const latestRunQuery = `
SELECT run_id, started_at, finished_at, status, COALESCE(error, ''),
       raw_messages, staged_messages, dropped_non_messages, rejected_rows,
       dim_dates_rows, dim_channels_rows, fact_rows, facts_missing_channel,
       facts_missing_date, detections_read, bridge_rows, detections_unmatched
FROM ops.pipeline_runs
ORDER BY started_at DESC
LIMIT 1`

const runResultsQuery = `
SELECT run_id, check_name, stage, passed, violations, COALESCE(detail, ''), checked_at
FROM ops.validation_results
WHERE run_id = $1
ORDER BY stage, check_name`

// LatestRun returns the most recently started run without its validation
// results. Consumers that only gate on run status use this.
func (s *Store) LatestRun(ctx context.Context) (*models.PipelineRun, error) {
	var (
		run        models.PipelineRun
		finishedAt sql.NullTime
	)
	c := &run.Counts
	err := s.db.QueryRowContext(ctx, latestRunQuery).Scan(
		&run.RunID, &run.StartedAt, &finishedAt, &run.Status, &run.Error,
		&c.RawMessages, &c.StagedMessages, &c.DroppedNonMessages, &c.RejectedRows,
		&c.DimDatesRows, &c.DimChannelsRows, &c.FactRows, &c.FactsMissingChannel,
		&c.FactsMissingDate, &c.DetectionsRead, &c.BridgeRows, &c.DetectionsUnmatched)
	if errors.Is(err, database.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// Latest returns the most recently started run and its validation results.
func (s *Store) Latest(ctx context.Context) (*models.PipelineRun, []models.ValidationResult, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, runResultsQuery, run.RunID)
	if err != nil {
		return nil, nil, fmt.Errorf("query validation results: %w", err)
	}
	defer rows.Close()

	var results []models.ValidationResult
	for rows.Next() {
		var res models.ValidationResult
		if err := rows.Scan(&res.RunID, &res.CheckName, &res.Stage, &res.Passed,
			&res.Violations, &res.Detail, &res.CheckedAt); err != nil {
			return nil, nil, fmt.Errorf("scan validation result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate validation results: %w", err)
	}
	return run, results, nil
}
