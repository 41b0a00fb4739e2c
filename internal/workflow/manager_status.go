package workflow

import (
	"context"

	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/stage"
	"scribe/internal/tracker"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastResult  *pipeline.RunResult
	Records     tracker.HealthSummary
	StageHealth []stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastResult != nil {
		copied := *m.lastResult
		summary.LastResult = &copied
	}
	m.mu.RUnlock()

	records, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Warn("failed to read tracker health", logging.Error(err))
	} else {
		summary.Records = records
	}
	summary.StageHealth = m.orch.Health(ctx)
	return summary
}
