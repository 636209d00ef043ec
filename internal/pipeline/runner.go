package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

// SourceReader loads raw inputs from the landing store.
type SourceReader interface {
	RawMessages(ctx context.Context) ([]models.RawMessage, error)
	Detections(ctx context.Context) ([]models.DetectionRecord, error)
}

// Materializer owns the full-replace writes of the warehouse tables. Each
// Replace call swaps a complete new table state into place atomically.
type Materializer interface {
	EnsureSchema(ctx context.Context) error
	ReplaceStagedMessages(ctx context.Context, rows []models.StagedMessage) error
	ReplaceDateDim(ctx context.Context, rows []models.DateDim) error
	ReplaceChannelDim(ctx context.Context, rows []models.ChannelDim) error
	ReplaceFacts(ctx context.Context, rows []models.FactMessage) error
	ReplaceDetectionBridge(ctx context.Context, rows []models.MessageDetection) error
}

// QualityChecker executes the validation suite for one warehouse stage.
type QualityChecker interface {
	RunChecks(ctx context.Context, stage string, now time.Time) ([]models.ValidationResult, error)
}

// RunRecorder persists run state and check results to the ops ledger.
type RunRecorder interface {
	StartRun(ctx context.Context, run models.PipelineRun) error
	FinishRun(ctx context.Context, run models.PipelineRun) error
	SaveValidationResults(ctx context.Context, runID string, results []models.ValidationResult) error
}

// Runner executes one full warehouse rebuild: read, transform, materialize,
// validate, record. The date dimension builds in parallel with staging and
// the channel dimension; facts wait on both.
type Runner struct {
	cfg      Config
	source   SourceReader
	marts    Materializer
	quality  QualityChecker
	recorder RunRecorder
	logger   logging.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewRunner creates a runner. The quality checker, recorder and metrics
// may each be nil, which disables that concern. Validate-only callers may
// leave source and marts nil as well.
func NewRunner(cfg Config, source SourceReader, marts Materializer, quality QualityChecker, recorder RunRecorder, logger logging.Logger, metrics *Metrics) *Runner {
	return &Runner{
		cfg:      cfg,
		source:   source,
		marts:    marts,
		quality:  quality,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Run executes a complete rebuild and returns the recorded run together
// with every validation result. Failing checks mark the run
// validation_failed but do not abort it; only stage errors do.
func (r *Runner) Run(ctx context.Context) (*models.PipelineRun, []models.ValidationResult, error) {
	buildTime := r.now().UTC()
	run := models.PipelineRun{
		RunID:     uuid.New().String(),
		StartedAt: buildTime,
		Status:    models.RunStatusRunning,
	}
	r.logger.WithFields(logging.Fields{"run_id": run.RunID}).Info("Pipeline run starting")
	if r.recorder != nil {
		if err := r.recorder.StartRun(ctx, run); err != nil {
			return nil, nil, fmt.Errorf("record run start: %w", err)
		}
	}

	results, execErr := r.execute(ctx, &run, buildTime)
	r.finishRun(ctx, &run, results, execErr)

	fields := logging.Fields{
		"run_id":   run.RunID,
		"status":   run.Status,
		"duration": run.FinishedAt.Sub(run.StartedAt).String(),
		"facts":    run.Counts.FactRows,
	}
	switch {
	case execErr != nil:
		fields["error"] = execErr.Error()
		r.logger.WithFields(fields).Error("Pipeline run failed")
	case run.Status == models.RunStatusValidationFailed:
		fields["failed_checks"] = countFailed(results)
		r.logger.WithFields(fields).Warn("Pipeline run completed with validation failures")
	default:
		r.logger.WithFields(fields).Info("Pipeline run complete")
	}
	return &run, results, execErr
}

// Validate runs the full check suite against the warehouse as it stands,
// without rebuilding anything, and records the outcome as its own run.
func (r *Runner) Validate(ctx context.Context) (*models.PipelineRun, []models.ValidationResult, error) {
	run := models.PipelineRun{
		RunID:     uuid.New().String(),
		StartedAt: r.now().UTC(),
		Status:    models.RunStatusRunning,
	}
	if r.recorder != nil {
		if err := r.recorder.StartRun(ctx, run); err != nil {
			return nil, nil, fmt.Errorf("record run start: %w", err)
		}
	}

	results, execErr := r.runChecks(ctx, run.RunID, models.StageStaging)
	if execErr == nil {
		var factResults []models.ValidationResult
		factResults, execErr = r.runChecks(ctx, run.RunID, models.StageFact)
		results = append(results, factResults...)
	}
	r.finishRun(ctx, &run, results, execErr)

	r.logger.WithFields(logging.Fields{
		"run_id":        run.RunID,
		"status":        run.Status,
		"checks":        len(results),
		"failed_checks": countFailed(results),
	}).Info("Validation run complete")
	return &run, results, execErr
}

func (r *Runner) execute(ctx context.Context, run *models.PipelineRun, buildTime time.Time) ([]models.ValidationResult, error) {
	if err := r.marts.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure warehouse schema: %w", err)
	}

	raws, err := r.source.RawMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("read raw messages: %w", err)
	}
	run.Counts.RawMessages = int64(len(raws))
	r.logger.WithFields(logging.Fields{"rows": len(raws)}).Info("Raw messages read")

	var (
		dates    []models.DateDim
		staging  StagingResult
		channels []models.ChannelDim
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		return r.timeStage("dim_dates", func() error {
			var err error
			dates, err = BuildDateDim(r.cfg.DateStart, r.cfg.DateEnd)
			return err
		})
	})
	g.Go(func() error {
		if err := r.timeStage("staging", func() error {
			staging = NormalizeMessages(raws, buildTime)
			return nil
		}); err != nil {
			return err
		}
		return r.timeStage("dim_channels", func() error {
			channels = BuildChannelDim(staging.Rows, r.cfg.Rules, r.cfg.DefaultCategory)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run.Counts.StagedMessages = int64(len(staging.Rows))
	run.Counts.DroppedNonMessages = int64(staging.DroppedNonMessages)
	run.Counts.RejectedRows = int64(staging.RejectedRows)
	run.Counts.DimDatesRows = int64(len(dates))
	run.Counts.DimChannelsRows = int64(len(channels))
	r.observeRows("staging", "staged", len(staging.Rows))
	r.observeRows("staging", "dropped_non_message", staging.DroppedNonMessages)
	r.observeRows("staging", "rejected_malformed", staging.RejectedRows)
	r.observeRows("dim_dates", "built", len(dates))
	r.observeRows("dim_channels", "built", len(channels))

	if err := r.timeStage("materialize_staging", func() error {
		return r.marts.ReplaceStagedMessages(ctx, staging.Rows)
	}); err != nil {
		return nil, fmt.Errorf("materialize staged messages: %w", err)
	}

	results, err := r.runChecks(ctx, run.RunID, models.StageStaging)
	if err != nil {
		return results, err
	}

	if err := r.timeStage("materialize_dims", func() error {
		if err := r.marts.ReplaceDateDim(ctx, dates); err != nil {
			return err
		}
		return r.marts.ReplaceChannelDim(ctx, channels)
	}); err != nil {
		return results, fmt.Errorf("materialize dimensions: %w", err)
	}

	facts := BuildFacts(staging.Rows, channels, dates)
	run.Counts.FactRows = int64(len(facts.Rows))
	run.Counts.FactsMissingChannel = int64(facts.MissingChannel)
	run.Counts.FactsMissingDate = int64(facts.MissingDate)
	r.observeRows("facts", "built", len(facts.Rows))
	r.observeRows("facts", "missing_channel", facts.MissingChannel)
	r.observeRows("facts", "missing_date", facts.MissingDate)

	if err := r.timeStage("materialize_facts", func() error {
		return r.marts.ReplaceFacts(ctx, facts.Rows)
	}); err != nil {
		return results, fmt.Errorf("materialize facts: %w", err)
	}

	detections, err := r.source.Detections(ctx)
	if err != nil {
		return results, fmt.Errorf("read detections: %w", err)
	}
	run.Counts.DetectionsRead = int64(len(detections))

	bridge := BuildDetectionBridge(facts.Rows, detections)
	run.Counts.BridgeRows = int64(len(bridge.Rows))
	run.Counts.DetectionsUnmatched = int64(bridge.Unmatched)
	r.observeRows("bridge", "built", len(bridge.Rows))
	r.observeRows("bridge", "unmatched_detection", bridge.Unmatched)

	if err := r.timeStage("materialize_bridge", func() error {
		return r.marts.ReplaceDetectionBridge(ctx, bridge.Rows)
	}); err != nil {
		return results, fmt.Errorf("materialize detection bridge: %w", err)
	}

	factResults, err := r.runChecks(ctx, run.RunID, models.StageFact)
	results = append(results, factResults...)
	if err != nil {
		return results, err
	}
	return results, nil
}

// runChecks executes one stage's validation suite, stamps the run onto the
// results and persists them immediately so a later stage failure cannot
// lose them.
func (r *Runner) runChecks(ctx context.Context, runID, stage string) ([]models.ValidationResult, error) {
	if r.quality == nil {
		return nil, nil
	}
	var results []models.ValidationResult
	err := r.timeStage("validate_"+stage, func() error {
		var err error
		results, err = r.quality.RunChecks(ctx, stage, r.now().UTC())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("run %s checks: %w", stage, err)
	}
	for i := range results {
		results[i].RunID = runID
	}
	r.observeChecks(results)
	if r.recorder != nil && len(results) > 0 {
		if err := r.recorder.SaveValidationResults(ctx, runID, results); err != nil {
			return results, fmt.Errorf("save validation results: %w", err)
		}
	}
	return results, nil
}

func (r *Runner) finishRun(ctx context.Context, run *models.PipelineRun, results []models.ValidationResult, execErr error) {
	finished := r.now().UTC()
	run.FinishedAt = &finished
	switch {
	case execErr != nil:
		run.Status = models.RunStatusFailed
		run.Error = execErr.Error()
	case countFailed(results) > 0:
		run.Status = models.RunStatusValidationFailed
	default:
		run.Status = models.RunStatusSucceeded
	}
	if r.metrics != nil {
		r.metrics.Runs.WithLabelValues(run.Status).Inc()
	}
	if r.recorder != nil {
		if err := r.recorder.FinishRun(ctx, *run); err != nil {
			r.logger.WithFields(logging.Fields{
				"run_id": run.RunID,
				"error":  err.Error(),
			}).Error("Failed to record run completion")
		}
	}
}

func (r *Runner) timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	}
	if err == nil {
		r.logger.WithFields(logging.Fields{"stage": stage, "elapsed": elapsed.String()}).Debug("Stage complete")
	}
	return err
}

func (r *Runner) observeRows(stage, outcome string, n int) {
	if r.metrics == nil {
		return
	}
	r.metrics.Rows.WithLabelValues(stage, outcome).Add(float64(n))
}

func (r *Runner) observeChecks(results []models.ValidationResult) {
	if r.metrics == nil {
		return
	}
	for _, res := range results {
		outcome := "pass"
		if !res.Passed {
			outcome = "fail"
		}
		r.metrics.Checks.WithLabelValues(res.CheckName, outcome).Inc()
		r.metrics.Violations.WithLabelValues(res.CheckName).Set(float64(res.Violations))
	}
}

func countFailed(results []models.ValidationResult) int {
	n := 0
	for _, res := range results {
		if !res.Passed {
			n++
		}
	}
	return n
}
