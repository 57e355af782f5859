package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// Escrow owns the per-question bounty pools and their single finalization.
type Escrow struct {
	ledger *Ledger
}

func (e *Escrow) Open(ctx context.Context, tx ports.Tx, q *domain.Question, initialStake int64, at time.Time) (*domain.Escrow, error) {
	if initialStake < 0 {
		return nil, domain.E("escrow.open", q.ID, domain.ErrInvalidAmount)
	}

	escrow := &domain.Escrow{QuestionID: q.ID}
	if err := tx.Escrows().Create(ctx, escrow); err != nil {
		return nil, err
	}
	if initialStake > 0 {
		if _, err := e.ledger.Reserve(ctx, tx, q.AskerID, escrow, initialStake, at); err != nil {
			return nil, err
		}
	}
	return escrow, nil
}

// Stake adds a contribution to an open question's pool. Staking is what makes
// the citizen eligible to vote on the eventual answer.
func (e *Escrow) Stake(ctx context.Context, tx ports.Tx, q *domain.Question, citizenID uuid.UUID, amount int64, now time.Time) (*domain.Escrow, error) {
	if !q.AcceptsStakes(now) {
		return nil, domain.E("escrow.stake", q.ID, domain.ErrQuestionNotOpen)
	}

	escrow, err := tx.Escrows().Get(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if escrow.Finalized {
		return nil, domain.E("escrow.stake", q.ID, domain.ErrQuestionNotOpen)
	}

	if _, err := e.ledger.Reserve(ctx, tx, citizenID, escrow, amount, now); err != nil {
		return nil, err
	}
	return escrow, nil
}

// Finalize settles the pool exactly once, to charity on release or back to
// each contributor on refund.
func (e *Escrow) Finalize(ctx context.Context, tx ports.Tx, escrow *domain.Escrow, q *domain.Question, outcome domain.Outcome, now time.Time) (*domain.Settlement, error) {
	if escrow.Finalized {
		return nil, domain.E("escrow.finalize", q.ID, domain.ErrAlreadyFinalized)
	}
	return e.ledger.Settle(ctx, tx, escrow, outcome, q.PoliticianID, now)
}
