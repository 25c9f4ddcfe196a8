package service

import (
	"context"
	"time"

	"mirage/internal/domain"
	"mirage/internal/infra"
)

// Sweeper periodically removes aged job records, terminal or not, once they
// pass the retention threshold.
type Sweeper struct {
	store     domain.JobStore
	logger    infra.Logger
	interval  time.Duration
	retention time.Duration
}

// NewSweeper wires the retention sweep.
func NewSweeper(store domain.JobStore, logger infra.Logger, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	removed, err := s.store.Sweep(ctx, s.retention)
	if err != nil {
		s.logger.Error().Err(err).Msg("job sweep failed")
		return
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("swept aged jobs")
	}
}
