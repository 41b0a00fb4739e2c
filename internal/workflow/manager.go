package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/discovery"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/tracker"
)

// Manager runs the discovery poll loop: find settled recordings, hand each to
// the orchestrator, repeat. One manager owns one source.
type Manager struct {
	cfg          *config.Config
	store        *tracker.Store
	source       discovery.Source
	orch         *pipeline.Orchestrator
	logger       *slog.Logger
	pollInterval time.Duration
	errorRetry   time.Duration

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastErr    error
	lastResult *pipeline.RunResult
}

// NewManager constructs a workflow manager over the given source and
// orchestrator.
func NewManager(cfg *config.Config, store *tracker.Store, source discovery.Source, orch *pipeline.Orchestrator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		source:       source,
		orch:         orch,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.PollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// Start begins background polling. It returns an error when the manager is
// already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background polling and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		wait := m.pollInterval
		if err := m.PollOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("poll failed",
				logging.String(logging.FieldEventType, "poll_failed"),
				logging.Error(err),
			)
			wait = m.errorRetry
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastResult(result pipeline.RunResult) {
	m.mu.Lock()
	m.lastResult = &result
	m.mu.Unlock()
}
