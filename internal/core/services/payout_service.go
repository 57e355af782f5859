package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// payoutService drains the charity payout outbox. A payout is written in the
// same transaction as the escrow release and marked delivered only after the
// sink accepted it, so a crash between the two redelivers with the same id.
type payoutService struct {
	core *Core
	sink ports.CharitySink
}

func NewPayoutService(core *Core, sink ports.CharitySink) ports.PayoutService {
	return &payoutService{core: core, sink: sink}
}

func (s *payoutService) DeliverPending(ctx context.Context) (delivered int, err error) {
	const op = "payout.deliver"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, nil, err) }()

	var pending []*domain.CharityPayout
	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		pending, err = tx.Payouts().ListPending(ctx, s.core.cfg.PayoutBatchSize)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list pending payouts: %w", err)
	}

	var errs []error
	for _, p := range pending {
		if err := s.sink.Disburse(ctx, *p); err != nil {
			errs = append(errs, fmt.Errorf("failed to disburse payout %s: %w", p.ID, err))
			continue
		}
		err := s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
			return tx.Payouts().MarkDelivered(ctx, p.ID, s.core.now())
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to mark payout %s delivered: %w", p.ID, err))
			continue
		}
		delivered++
		s.core.metrics.IncrementPayoutsDelivered()
		s.core.logger.InfoContext(ctx, "charity payout delivered",
			"payout_id", p.ID,
			"question_id", p.QuestionID,
			"amount", p.Amount,
		)
	}
	return delivered, errors.Join(errs...)
}
