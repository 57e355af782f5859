package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

const topStakers = 10

type ledgerService struct {
	core *Core
}

func NewLedgerService(core *Core) ports.LedgerService {
	return &ledgerService{core: core}
}

func (s *ledgerService) Purchase(ctx context.Context, userID uuid.UUID, amount int64) (wallet *domain.Wallet, err error) {
	const op = "ledger.purchase"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, userID, err) }()

	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		wallet, err = s.core.ledger.Purchase(ctx, tx, userID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.core.metrics.AddPurchased(amount)
	s.core.logger.InfoContext(ctx, "points purchased",
		"user_id", userID,
		"amount", amount,
	)
	return wallet, nil
}

func (s *ledgerService) Wallet(ctx context.Context, userID uuid.UUID) (wallet *domain.Wallet, err error) {
	const op = "ledger.wallet"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, userID, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		wallet, err = tx.Wallets().Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

type bountyService struct {
	core *Core
}

func NewBountyService(core *Core) ports.BountyService {
	return &bountyService{core: core}
}

func (s *bountyService) Stake(ctx context.Context, input ports.StakeInput) (escrow *domain.Escrow, err error) {
	const op = "bounty.stake"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, input.QuestionID, err) }()

	now := s.core.now()
	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		citizen, err := tx.Users().GetByID(ctx, input.CitizenID)
		if err != nil {
			return err
		}
		if citizen.Role != domain.RoleCitizen {
			return domain.E(op, citizen.ID, domain.ErrForbidden)
		}
		q, err := tx.Questions().Get(ctx, input.QuestionID)
		if err != nil {
			return err
		}
		escrow, err = s.core.escrow.Stake(ctx, tx, q, citizen.ID, input.Amount, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.core.metrics.AddStaked(input.Amount)
	s.core.logger.InfoContext(ctx, "stake placed",
		"question_id", input.QuestionID,
		"citizen_id", input.CitizenID,
		"amount", input.Amount,
		"total_bounty", escrow.TotalBounty,
	)
	s.core.emit(ctx, domain.Event{
		Type:       domain.EventStakePlaced,
		QuestionID: input.QuestionID,
		ActorID:    uuidPtr(input.CitizenID),
		Amount:     input.Amount,
	})
	return escrow, nil
}

func (s *bountyService) Details(ctx context.Context, questionID uuid.UUID) (details *ports.BountyDetails, err error) {
	const op = "bounty.details"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, questionID, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		escrow, err := tx.Escrows().Get(ctx, questionID)
		if err != nil {
			return err
		}
		details = &ports.BountyDetails{
			QuestionID:  questionID,
			TotalBounty: escrow.TotalBounty,
			StakerCount: escrow.StakerCount(),
			TopStakers:  escrow.TopStakers(topStakers),
			Finalized:   escrow.Finalized,
			Outcome:     escrow.Outcome,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}
