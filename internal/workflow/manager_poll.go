package workflow

import (
	"context"

	"scribe/internal/logging"
	"scribe/internal/pipeline"
)

// PollOnce runs a single discovery pass: reclaim stale claims, list
// candidates, and process each one. The returned error is a loop-level
// failure (broken source or tracking store); per-candidate failures are
// recorded in the tracker and do not stop the pass.
func (m *Manager) PollOnce(ctx context.Context) error {
	reclaimed, err := m.store.ReclaimStale(ctx)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		m.logger.Info("reclaimed stale claims",
			logging.String(logging.FieldEventType, "claims_reclaimed"),
			logging.Int64("count", reclaimed),
		)
	}

	candidates, err := m.source.Discover(ctx)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := m.orch.Process(ctx, cand)
		if err != nil {
			return err
		}
		switch result.Outcome {
		case pipeline.OutcomeCompleted, pipeline.OutcomeFailed:
			m.setLastResult(result)
		case pipeline.OutcomeAlreadyClaimed:
			// Seen on every poll for recordings already done. Quiet by intent.
		}
	}
	return nil
}
