package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type sweepService struct {
	core *Core
}

func NewSweepService(core *Core) ports.SweepService {
	return &sweepService{core: core}
}

// Sweep resolves every question whose deadline or voting window has passed.
// Questions are handled concurrently, each under its own transaction, so a
// sweep racing user requests or another sweep only ever finalizes a question
// once. Questions someone else already resolved are counted as skipped.
func (s *sweepService) Sweep(ctx context.Context) (report ports.SweepReport, err error) {
	const op = "sweep.run"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, nil, err) }()

	var due []uuid.UUID
	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		due, err = tx.Questions().ListDue(ctx, s.core.now())
		return err
	})
	if err != nil {
		return report, fmt.Errorf("failed to list due questions: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.core.cfg.SweepConcurrency)

	for _, id := range due {
		g.Go(func() error {
			settlement, err := s.resolveOne(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && settlement.Outcome == domain.OutcomeRefunded:
				report.Expired++
				s.core.metrics.IncrementSweepTransition("expired")
			case err == nil:
				report.Released++
				s.core.metrics.IncrementSweepTransition("released")
			case errors.Is(err, domain.ErrAlreadyFinalized), errors.Is(err, domain.ErrInvalidTransition):
				report.Skipped++
			default:
				report.Failed++
				s.core.logger.ErrorContext(gctx, "failed to resolve question",
					"question_id", id,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.core.logger.InfoContext(ctx, "sweep finished",
		"due", len(due),
		"expired", report.Expired,
		"released", report.Released,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *sweepService) resolveOne(ctx context.Context, id uuid.UUID) (settlement *domain.Settlement, err error) {
	const op = "sweep.resolve"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, id, err) }()

	return s.core.resolve(ctx, id, false)
}
