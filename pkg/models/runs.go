package models

import "time"

// Pipeline run lifecycle states
const (
	RunStatusRunning          = "running"
	RunStatusSucceeded        = "succeeded"
	RunStatusValidationFailed = "validation_failed"
	RunStatusFailed           = "failed"
)

// RunCounts carries the observable row-count deltas of one pipeline run,
// including every exclusion set the stages produce.
type RunCounts struct {
	RawMessages         int64 `json:"raw_messages"`
	StagedMessages      int64 `json:"staged_messages"`
	DroppedNonMessages  int64 `json:"dropped_non_messages"`
	RejectedRows        int64 `json:"rejected_rows"`
	DimDatesRows        int64 `json:"dim_dates_rows"`
	DimChannelsRows     int64 `json:"dim_channels_rows"`
	FactRows            int64 `json:"fact_rows"`
	FactsMissingChannel int64 `json:"facts_missing_channel"`
	FactsMissingDate    int64 `json:"facts_missing_date"`
	DetectionsRead      int64 `json:"detections_read"`
	BridgeRows          int64 `json:"bridge_rows"`
	DetectionsUnmatched int64 `json:"detections_unmatched"`
}

// PipelineRun represents one entry in ops.pipeline_runs
type PipelineRun struct {
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Counts     RunCounts  `json:"counts"`
}

// Validation stages, named for the layer a check inspects
const (
	StageStaging = "staging"
	StageFact    = "fact"
)

// ValidationResult represents one executed check in ops.validation_results
type ValidationResult struct {
	RunID      string    `json:"run_id"`
	CheckName  string    `json:"check_name"`
	Stage      string    `json:"stage"`
	Passed     bool      `json:"passed"`
	Violations int64     `json:"violations"`
	Detail     string    `json:"detail,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
