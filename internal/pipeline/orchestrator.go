package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/discovery"
	"scribe/internal/identity"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/services"
	"scribe/internal/stage"
	"scribe/internal/tracker"
)

// Outcome classifies one orchestrator run over a candidate.
type Outcome string

const (
	// OutcomeCompleted means every stage ran or was skipped and the record is
	// now completed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means a stage failed and the record was marked failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeAlreadyClaimed means another run owns or already finished this
	// identity. Not an error.
	OutcomeAlreadyClaimed Outcome = "already_claimed"
	// OutcomeDryRun means the plan was logged and nothing was claimed or run.
	OutcomeDryRun Outcome = "dry_run"
)

// Stage pairs a pipeline stage name with its work and readiness probe.
type Stage struct {
	Name   string
	Work   stage.WorkFunc
	Health func(ctx context.Context) stage.Health
}

// RunResult reports what processing a candidate did.
type RunResult struct {
	Outcome     Outcome
	Identity    string
	DisplayName string
	Reason      tracker.ClaimReason
	Stages      []stage.Result
	Err         error
}

// Orchestrator claims candidates and drives them through the stage sequence,
// resuming from tracker checkpoints after failures or restarts.
type Orchestrator struct {
	cfg      *config.Config
	store    *tracker.Store
	runner   *stage.Runner
	stages   []Stage
	notifier notifications.Service
	logger   *slog.Logger

	strategy  identity.Strategy
	heartbeat time.Duration
}

// New builds an orchestrator over the given stage sequence.
func New(cfg *config.Config, store *tracker.Store, notifier notifications.Service, logger *slog.Logger, stages []Stage) (*Orchestrator, error) {
	strategy, err := identity.ParseStrategy(cfg.Identity.Strategy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		runner:    stage.NewRunner(store, logger),
		stages:    stages,
		notifier:  notifier,
		logger:    logger,
		strategy:  strategy,
		heartbeat: time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second,
	}, nil
}

// StageNames returns the configured stage order.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, 0, len(o.stages))
	for _, st := range o.stages {
		names = append(names, st.Name)
	}
	return names
}

// Health probes every stage's readiness.
func (o *Orchestrator) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(o.stages))
	for _, st := range o.stages {
		if st.Health == nil {
			checks = append(checks, stage.Healthy(st.Name))
			continue
		}
		checks = append(checks, st.Health(ctx))
	}
	return checks
}

// Process runs one candidate through the pipeline. The returned error is
// non-nil only for failures that must stop the caller entirely, such as a
// broken tracking store; per-candidate failures come back inside the
// RunResult with the record already marked failed.
func (o *Orchestrator) Process(ctx context.Context, cand discovery.Candidate) (RunResult, error) {
	ctx = services.WithRequestID(ctx, uuid.NewString())

	id, err := identity.Compute(o.strategy, identity.Input{
		ExternalID: cand.ExternalID,
		Name:       cand.ExternalID,
		Path:       cand.ContentRef,
	})
	if err != nil {
		logging.WithContext(ctx, o.logger).Error("identity computation failed",
			logging.String("candidate", cand.ExternalID),
			logging.Error(err),
		)
		return RunResult{Outcome: OutcomeFailed, Err: err}, nil
	}
	if cand.DisplayName != "" {
		id.DisplayName = cand.DisplayName
	}

	ctx = services.WithIdentity(ctx, id.PrimaryKey)
	logger := logging.WithContext(ctx, o.logger)

	result := RunResult{Identity: id.PrimaryKey, DisplayName: id.DisplayName}

	if o.cfg.Workflow.DryRun {
		logger.Info("dry run, skipping claim and stage execution",
			logging.String("candidate", cand.ExternalID),
			logging.Any("stages", o.StageNames()),
		)
		result.Outcome = OutcomeDryRun
		return result, nil
	}

	claim, err := o.store.Claim(ctx, id.PrimaryKey, id.DisplayName)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, err
	}
	if !claim.Claimed {
		logger.Info("claim refused",
			logging.String("reason", string(claim.Reason)),
		)
		result.Outcome = OutcomeAlreadyClaimed
		result.Reason = claim.Reason
		return result, nil
	}

	logger.Info("processing started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.Int("attempt", claim.Record.AttemptCount),
	)
	if err := o.notifier.NotifyProcessingStarted(ctx, id.DisplayName); err != nil {
		logger.Debug("start notification failed", logging.Error(err))
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go o.heartbeatLoop(hbCtx, id.PrimaryKey)

	input := cand.ContentRef
	for _, st := range o.stages {
		stageResult := o.runner.Run(ctx, claim.Record, st.Name, input, st.Work)
		result.Stages = append(result.Stages, stageResult)
		if stageResult.Outcome == stage.OutcomeFailed {
			return o.fail(ctx, logger, result, stageResult)
		}
		input = stageResult.OutputRef
	}
	stopHeartbeat()

	if err := o.store.RecordSuccess(ctx, id.PrimaryKey); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, err
	}
	logger.Info("processing completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("bundle", input),
	)
	if err := o.notifier.NotifyProcessingCompleted(ctx, id.DisplayName, input); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}

	result.Outcome = OutcomeCompleted
	return result, nil
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, result RunResult, stageResult stage.Result) (RunResult, error) {
	result.Outcome = OutcomeFailed
	result.Err = stageResult.Err

	if services.IsFatal(stageResult.Err) {
		// The store itself is broken; marking the record failed would only
		// fail the same way.
		return result, stageResult.Err
	}
	if err := o.store.RecordFailure(ctx, result.Identity, stageResult.Err); err != nil {
		result.Err = err
		return result, err
	}
	logger.Error("processing failed",
		logging.String(logging.FieldEventType, "pipeline_failure"),
		logging.String("failed_stage", stageResult.Stage),
		logging.Error(stageResult.Err),
	)
	if err := o.notifier.NotifyProcessingFailed(ctx, result.DisplayName, stageResult.Err); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
	return result, nil
}

// heartbeatLoop keeps the claim fresh while stages run, so other workers do
// not treat a long transcription as a stale claim.
func (o *Orchestrator) heartbeatLoop(ctx context.Context, identityKey string) {
	if o.heartbeat <= 0 {
		return
	}
	ticker := time.NewTicker(o.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.store.Touch(ctx, identityKey); err != nil {
				logging.WithContext(ctx, o.logger).Warn("heartbeat failed", logging.Error(err))
			}
		}
	}
}
