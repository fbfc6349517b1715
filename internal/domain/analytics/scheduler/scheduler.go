package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/socialops/internal/domain/analytics/service"
)

// Refresher refreshes metrics of recently posted items
type Refresher interface {
	RefreshRecent(ctx context.Context, limit int) ([]service.RefreshOutput, error)
}

// Scheduler periodically refreshes analytics. It never posts anything.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	limit     int
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a new analytics scheduler. The interval must be positive.
func New(refresher Refresher, interval time.Duration, limit int, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		limit:     limit,
		logger:    logger,
	}, nil
}

// Start begins the refresh loop; calling it while running is a no-op
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.logger.Info("analytics scheduler started", "interval", s.interval, "limit", s.limit)

	s.wg.Add(1)
	go s.run(ctx, s.stopCh)
}

// Stop ends the loop and waits for an in-flight refresh to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("analytics scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	// a tick must finish before the next one is due
	tickCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	out, err := s.refresher.RefreshRecent(tickCtx, s.limit)
	if err != nil {
		s.logger.Error("analytics refresh failed", "error", err)
		return
	}

	failed := 0
	for _, r := range out {
		if r.Error != "" {
			failed++
		}
	}
	s.logger.Debug("analytics refresh tick", "posts", len(out), "failed", failed)
}
