package runlog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

const testRunID = "8b1d6f3e-9a47-4c21-b7a1-2f0e6d5c4b3a"

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, logging.NewTestLogger()), mock
}

func TestStoreStartRun(t *testing.T) {
	store, mock := newStoreMock(t)
	started := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO ops.pipeline_runs").
		WithArgs(testRunID, started, models.RunStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.StartRun(context.Background(), models.PipelineRun{
		RunID:     testRunID,
		StartedAt: started,
		Status:    models.RunStatusRunning,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFinishRun(t *testing.T) {
	store, mock := newStoreMock(t)
	finished := time.Date(2026, 2, 1, 12, 5, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE ops.pipeline_runs").
		WithArgs(testRunID, finished, models.RunStatusSucceeded, "",
			int64(3), int64(2), int64(1), int64(0),
			int64(31), int64(2), int64(2), int64(0),
			int64(0), int64(2), int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.FinishRun(context.Background(), models.PipelineRun{
		RunID:      testRunID,
		FinishedAt: &finished,
		Status:     models.RunStatusSucceeded,
		Counts: models.RunCounts{
			RawMessages:         3,
			StagedMessages:      2,
			DroppedNonMessages:  1,
			DimDatesRows:        31,
			DimChannelsRows:     2,
			FactRows:            2,
			DetectionsRead:      2,
			BridgeRows:          1,
			DetectionsUnmatched: 1,
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveValidationResults(t *testing.T) {
	store, mock := newStoreMock(t)
	checked := time.Date(2026, 2, 1, 12, 4, 0, 0, time.UTC)

	results := []models.ValidationResult{
		{CheckName: "stg_no_negative_view_counts", Stage: "staging", Passed: true, CheckedAt: checked},
		{CheckName: "fct_channel_keys_resolve", Stage: "fact", Passed: false, Violations: 3, Detail: "3 violating rows", CheckedAt: checked},
	}
	for _, res := range results {
		mock.ExpectExec("INSERT INTO ops.validation_results").
			WithArgs(testRunID, res.CheckName, res.Stage, res.Passed, res.Violations, res.Detail, checked).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	err := store.SaveValidationResults(context.Background(), testRunID, results)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveValidationResultsError(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectExec("INSERT INTO ops.validation_results").
		WillReturnError(errors.New("deadlock detected"))

	err := store.SaveValidationResults(context.Background(), testRunID, []models.ValidationResult{
		{CheckName: "stg_no_negative_view_counts", Stage: "staging", Passed: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stg_no_negative_view_counts")
}

func TestStoreLatest(t *testing.T) {
	store, mock := newStoreMock(t)
	started := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)

	runColumns := []string{
		"run_id", "started_at", "finished_at", "status", "error",
		"raw_messages", "staged_messages", "dropped_non_messages", "rejected_rows",
		"dim_dates_rows", "dim_channels_rows", "fact_rows", "facts_missing_channel",
		"facts_missing_date", "detections_read", "bridge_rows", "detections_unmatched",
	}
	mock.ExpectQuery("FROM ops.pipeline_runs").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow(testRunID, started, finished, models.RunStatusValidationFailed, "",
				int64(10), int64(8), int64(2), int64(0),
				int64(31), int64(3), int64(8), int64(0),
				int64(0), int64(5), int64(4), int64(1)))

	mock.ExpectQuery("FROM ops.validation_results").
		WithArgs(testRunID).
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "check_name", "stage", "passed", "violations", "detail", "checked_at"}).
			AddRow(testRunID, "fct_channel_keys_resolve", "fact", false, int64(2), "2 violating rows", finished).
			AddRow(testRunID, "stg_no_negative_view_counts", "staging", true, int64(0), "", finished))

	run, results, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, testRunID, run.RunID)
	assert.Equal(t, models.RunStatusValidationFailed, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.True(t, run.FinishedAt.Equal(finished))
	assert.Equal(t, int64(10), run.Counts.RawMessages)
	assert.Equal(t, int64(8), run.Counts.FactRows)

	require.Len(t, results, 2)
	assert.Equal(t, "fct_channel_keys_resolve", results[0].CheckName)
	assert.False(t, results[0].Passed)
	assert.Equal(t, int64(2), results[0].Violations)
	assert.True(t, results[1].Passed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLatestNoRuns(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("FROM ops.pipeline_runs").WillReturnError(sql.ErrNoRows)

	_, _, err := store.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRuns))
}
