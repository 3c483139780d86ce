package services

import (
	"context"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
)

// Scheduler runs fn immediately and then on every tick of interval until ctx
// is done. A failing run is logged and retried on the next tick.
type Scheduler struct {
	name     string
	interval time.Duration
	fn       func(context.Context) error
}

func NewScheduler(name string, interval time.Duration, fn func(context.Context) error) *Scheduler {
	return &Scheduler{name: name, interval: interval, fn: fn}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.L.Info("Scheduler stopped", "job", s.name)
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.fn(ctx); err != nil && ctx.Err() == nil {
		logger.L.Warn("Scheduled job failed, retrying on next tick", "job", s.name, "error", err)
	}
}
