package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/upload"
)

// sweeper periodically expires idle upload sessions and prunes terminal ones.
type sweeper struct {
	uploads  *upload.Manager
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSweeper(cfg *config.Config, uploads *upload.Manager, logger *slog.Logger) *sweeper {
	interval := time.Duration(cfg.Upload.SweepIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &sweeper{
		uploads:  uploads,
		logger:   logging.NewComponentLogger(logger, "sweeper"),
		interval: interval,
	}
}

func (s *sweeper) start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.sweep(runCtx)
			}
		}
	}()
}

func (s *sweeper) stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *sweeper) sweep(ctx context.Context) {
	expired, err := s.uploads.ExpireStale(ctx)
	if err != nil {
		s.logger.Warn("session expiry sweep failed", logging.Error(err))
	} else if expired > 0 {
		s.logger.Info("expired stale sessions", logging.Int("count", expired))
	}

	pruned, err := s.uploads.PruneTerminal(ctx)
	if err != nil {
		s.logger.Warn("session prune sweep failed", logging.Error(err))
	} else if pruned > 0 {
		s.logger.Info("pruned terminal sessions", logging.Int("count", pruned))
	}
}
