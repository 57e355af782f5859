package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type voteService struct {
	core *Core
}

func NewVoteService(core *Core) ports.VoteService {
	return &voteService{core: core}
}

func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (answer *domain.Answer, err error) {
	const op = "vote.cast"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, input.AnswerID, err) }()

	questionID, err := s.questionOf(ctx, input.AnswerID)
	if err != nil {
		return nil, err
	}

	var changed bool
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
		answer, err = tx.Answers().Get(ctx, input.AnswerID)
		if err != nil {
			return err
		}
		changed, err = s.core.tally.Cast(ctx, tx, q, escrow, answer, input.VoterID, input.IsHelpful, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return answer, nil
	}

	s.core.metrics.IncrementVotes()
	s.core.emit(ctx, domain.Event{
		Type:       domain.EventVoteCast,
		QuestionID: questionID,
		AnswerID:   uuidPtr(answer.ID),
		ActorID:    uuidPtr(input.VoterID),
	})

	if quorum := s.core.cfg.VoteQuorum; quorum > 0 && answer.TotalVotes() >= int64(quorum) {
		s.finalizeOnQuorum(ctx, questionID)
	}
	return answer, nil
}

// finalizeOnQuorum closes voting early once enough votes landed. The vote has
// already committed, so failures here are only logged and left to the sweeper.
func (s *voteService) finalizeOnQuorum(ctx context.Context, questionID uuid.UUID) {
	_, err := s.core.resolve(ctx, questionID, true)
	switch {
	case err == nil:
		s.core.logger.InfoContext(ctx, "voting closed early on quorum", "question_id", questionID)
	case errors.Is(err, domain.ErrAlreadyFinalized):
	default:
		s.core.logger.WarnContext(ctx, "quorum finalize failed",
			"question_id", questionID,
			"error", err,
		)
	}
}

func (s *voteService) questionOf(ctx context.Context, answerID uuid.UUID) (uuid.UUID, error) {
	var questionID uuid.UUID
	err := s.core.store.View(ctx, func(tx ports.Tx) error {
		answer, err := tx.Answers().Get(ctx, answerID)
		if err != nil {
			return err
		}
		questionID = answer.QuestionID
		return nil
	})
	return questionID, err
}

func (s *voteService) Votes(ctx context.Context, answerID, viewer uuid.UUID) (votes *ports.AnswerVotes, err error) {
	const op = "vote.read"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, answerID, err) }()

	now := s.core.now()
	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		answer, err := tx.Answers().Get(ctx, answerID)
		if err != nil {
			return err
		}
		q, err := tx.Questions().Get(ctx, answer.QuestionID)
		if err != nil {
			return err
		}
		escrow, err := tx.Escrows().Get(ctx, answer.QuestionID)
		if err != nil {
			return err
		}

		votes = &ports.AnswerVotes{
			AnswerID:        answer.ID,
			HelpfulVotes:    answer.HelpfulCount,
			EvasiveVotes:    answer.EvasiveCount,
			TotalVotes:      answer.TotalVotes(),
			DirectnessScore: answer.DirectnessScore,
			Satisfaction:    answer.Satisfaction(),
			VotingOpen:      q.VotingOpen(now),
		}
		if viewer == uuid.Nil {
			return nil
		}

		votes.CanVote = votes.VotingOpen && escrow.ContributedBy(viewer) > 0
		vote, err := tx.Votes().Get(ctx, answerID, viewer)
		if err != nil {
			return err
		}
		if vote != nil {
			helpful := vote.IsHelpful
			votes.UserVote = &helpful
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}
