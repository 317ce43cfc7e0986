package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/store"
)

// Manager drains queued assessments from the store with a bounded pool of
// workers, each running the orchestrator on one assessment at a time.
type Manager struct {
	cfg          *config.Config
	store        *store.Store
	orchestrator *Orchestrator
	logger       *slog.Logger

	pollInterval       time.Duration
	errorRetryInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a pipeline manager.
func NewManager(cfg *config.Config, st *store.Store, orchestrator *Orchestrator, logger *slog.Logger) *Manager {
	pollInterval := time.Duration(cfg.Pipeline.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	errorRetryInterval := time.Duration(cfg.Pipeline.ErrorRetryInterval) * time.Second
	if errorRetryInterval <= 0 {
		errorRetryInterval = 5 * time.Second
	}
	return &Manager{
		cfg:                cfg,
		store:              st,
		orchestrator:       orchestrator,
		logger:             logging.NewComponentLogger(logger, "pipeline-manager"),
		pollInterval:       pollInterval,
		errorRetryInterval: errorRetryInterval,
	}
}

// Start requeues assessments stuck in processing from a previous run and
// begins background workers.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}

	workers := m.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}

	reset, err := m.store.ResetStuckAssessments(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if reset > 0 {
		m.logger.Info("requeued interrupted assessments", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	m.mu.Unlock()

	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for workers to finish.
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

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		assessment, err := m.store.ClaimNextQueued(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to claim next assessment", logging.Error(err))
			m.waitOrShutdown(ctx, m.errorRetryInterval)
			continue
		}
		if assessment == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		logger.Info("processing assessment",
			logging.String("assessment_id", assessment.ID),
			logging.String("source", assessment.SourcePath),
		)
		if err := m.orchestrator.Run(ctx, assessment); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) waitOrShutdown(ctx context.Context, delay time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
