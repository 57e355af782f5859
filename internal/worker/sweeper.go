package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// Sweeper applies deadline-driven transitions and then hands released
// bounties to the charity sink.
type Sweeper struct {
	sweeps   ports.SweepService
	payouts  ports.PayoutService
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(sweeps ports.SweepService, payouts ports.PayoutService, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		sweeps:   sweeps,
		payouts:  payouts,
		interval: interval,
		logger:   logger,
	}
}

// RunOnce does a single pass. Payouts are delivered even when the sweep
// reported an error, since they come from earlier committed settlements.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	_, sweepErr := s.sweeps.Sweep(ctx)

	delivered, payoutErr := s.payouts.DeliverPending(ctx)
	if delivered > 0 {
		s.logger.InfoContext(ctx, "charity payouts delivered", "count", delivered)
	}

	return errors.Join(sweepErr, payoutErr)
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "sweep pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
