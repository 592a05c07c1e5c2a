package app

import (
	"context"
	"time"

	"github.com/5h444n/cams/internal/service"
	"go.uber.org/zap"
)

// Sweeper управляет фоновой sweep-задачей
type Sweeper struct {
	sweepService *service.SweepService
	interval     time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewSweeper создаёт новый планировщик sweep-задачи
func NewSweeper(sweepService *service.SweepService, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		sweepService: sweepService,
		interval:     interval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start запускает фоновую задачу
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting background sweeper", zap.Duration("interval", s.interval))

	go s.run(ctx)
}

// Stop останавливает фоновую задачу
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping background sweeper")
	close(s.stopChan)
}

// run периодически запускает sweep; первый проход сразу при старте
func (s *Sweeper) run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweep task cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	report, err := s.sweepService.Run(ctx)
	if err != nil {
		s.logger.Error("Sweep run failed", zap.Error(err))
		return
	}

	if report.StaleCancelled > 0 || report.NoShows > 0 || report.Failed > 0 {
		s.logger.Info("Sweep run completed",
			zap.Int("stale_cancelled", report.StaleCancelled),
			zap.Int("no_shows", report.NoShows),
			zap.Int("failed", report.Failed),
		)
	}
}
