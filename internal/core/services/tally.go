package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// Tally records helpful/evasive votes. Only citizens who staked on the
// question may vote, and a repeated vote replaces the earlier one.
type Tally struct{}

// Cast expects the question, escrow and answer to be loaded under the
// caller's transaction.
func (t *Tally) Cast(ctx context.Context, tx ports.Tx, q *domain.Question, escrow *domain.Escrow, answer *domain.Answer, voterID uuid.UUID, helpful bool, now time.Time) (changed bool, err error) {
	if !q.VotingOpen(now) {
		return false, domain.E("tally.cast", answer.ID, domain.ErrVotingClosed)
	}
	if escrow.ContributedBy(voterID) <= 0 {
		return false, domain.E("tally.cast", voterID, domain.ErrNotEligible)
	}

	prev, err := tx.Votes().Get(ctx, answer.ID, voterID)
	if err != nil {
		return false, err
	}
	if prev != nil && prev.IsHelpful == helpful {
		return false, nil
	}

	answer.ApplyVote(prev, helpful)
	if err := answer.Check(); err != nil {
		return false, err
	}
	vote := &domain.Vote{
		AnswerID:  answer.ID,
		VoterID:   voterID,
		IsHelpful: helpful,
		CastAt:    now,
	}
	if err := tx.Votes().Upsert(ctx, vote); err != nil {
		return false, err
	}
	if err := tx.Answers().Save(ctx, answer); err != nil {
		return false, err
	}
	return true, nil
}
