package stage

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/logging"
	"scribe/internal/tracker"
)

// WorkFunc performs the actual stage work. It receives the output reference of
// the previous stage and returns the reference for the artifact it produced.
type WorkFunc func(ctx context.Context, record *tracker.Record, input string) (string, error)

// VerifyFunc re-probes a checkpointed output reference. Returning false forces
// the stage to re-run even though the tracker recorded a completion.
type VerifyFunc func(outputRef string) bool

// Outcome classifies a single stage run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped_already_done"
	OutcomeFailed    Outcome = "failed"
)

// Result reports what a stage run did and which artifact it left behind.
type Result struct {
	Stage     string
	Outcome   Outcome
	OutputRef string
	Err       error
}

// Runner executes named stages against a claimed tracking record, skipping
// work the tracker has already checkpointed.
type Runner struct {
	store  *tracker.Store
	logger *slog.Logger
	verify VerifyFunc
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithVerify installs an artifact probe consulted before trusting a recorded
// checkpoint. Without it the tracker record alone decides skips.
func WithVerify(fn VerifyFunc) Option {
	return func(r *Runner) {
		r.verify = fn
	}
}

// NewRunner builds a stage runner backed by the given tracker store.
func NewRunner(store *tracker.Store, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{store: store, logger: logger}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes one stage for a claimed record. A stage the tracker already
// recorded is skipped and its stored output reference returned, so a resumed
// run repeats no completed work. On success the completion is checkpointed
// before Run returns; on failure nothing is recorded and the caller decides
// how to mark the record.
func (r *Runner) Run(ctx context.Context, record *tracker.Record, name, input string, work WorkFunc) Result {
	stageCtx := logging.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)

	completion, err := r.store.StageCompletionFor(stageCtx, record.Identity, name)
	if err != nil {
		return Result{Stage: name, Outcome: OutcomeFailed, Err: err}
	}
	if completion != nil {
		if r.verify == nil || r.verify(completion.OutputRef) {
			logger.Info(
				"stage skipped",
				logging.String(logging.FieldEventType, "stage_skip"),
				logging.String("output_ref", completion.OutputRef),
			)
			return Result{Stage: name, Outcome: OutcomeSkipped, OutputRef: completion.OutputRef}
		}
		logger.Warn(
			"checkpoint artifact missing, re-running stage",
			logging.String("output_ref", completion.OutputRef),
		)
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	outputRef, workErr := work(stageCtx, record, input)
	if workErr != nil {
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(workErr),
		)
		return Result{Stage: name, Outcome: OutcomeFailed, Err: workErr}
	}

	if err := r.store.RecordStageComplete(stageCtx, record.Identity, name, outputRef, nil); err != nil {
		return Result{Stage: name, Outcome: OutcomeFailed, Err: err}
	}

	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("output_ref", outputRef),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Result{Stage: name, Outcome: OutcomeSucceeded, OutputRef: outputRef}
}
