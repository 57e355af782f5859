package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// moderationService applies decisions taken outside the engine. A flagged
// question never transitions automatically again; its stakers are refunded
// only when a moderator asks for it.
type moderationService struct {
	core *Core
}

func NewModerationService(core *Core) ports.ModerationService {
	return &moderationService{core: core}
}

func (s *moderationService) Flag(ctx context.Context, questionID uuid.UUID) (question *domain.Question, err error) {
	const op = "moderation.flag"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, questionID, err) }()

	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		question, err = tx.Questions().Get(ctx, questionID)
		if err != nil {
			return err
		}
		escrow, err := tx.Escrows().Get(ctx, questionID)
		if err != nil {
			return err
		}
		if escrow.Finalized {
			return domain.E(op, questionID, domain.ErrAlreadyFinalized)
		}
		if err := question.Transition(domain.StatusFlagged); err != nil {
			return err
		}
		return tx.Questions().Save(ctx, question)
	})
	if err != nil {
		return nil, err
	}

	s.core.logger.InfoContext(ctx, "question flagged", "question_id", questionID)
	s.core.emit(ctx, domain.Event{
		Type:       domain.EventQuestionFlagged,
		QuestionID: questionID,
	})
	return question, nil
}

func (s *moderationService) RefundFlagged(ctx context.Context, questionID uuid.UUID) (settlement *domain.Settlement, err error) {
	const op = "moderation.refund"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, questionID, err) }()

	now := s.core.now()
	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		q, err := tx.Questions().Get(ctx, questionID)
		if err != nil {
			return err
		}
		escrow, err := tx.Escrows().Get(ctx, questionID)
		if err != nil {
			return err
		}
		if q.Status != domain.StatusFlagged {
			return domain.E(op, questionID, domain.ErrInvalidTransition)
		}
		settlement, err = s.core.escrow.Finalize(ctx, tx, escrow, q, domain.OutcomeRefunded, now)
		if err != nil {
			return err
		}
		q.Finalize(now)
		return tx.Questions().Save(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	s.core.metrics.ObserveSettlement(string(settlement.Outcome), settlement.Total)
	s.core.logger.InfoContext(ctx, "flagged question refunded",
		"question_id", questionID,
		"total", settlement.Total,
	)
	s.core.emit(ctx, domain.Event{
		Type:       domain.EventQuestionFinalized,
		QuestionID: questionID,
		Amount:     settlement.Total,
		Outcome:    settlement.Outcome,
	})
	return settlement, nil
}
