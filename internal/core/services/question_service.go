package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type questionService struct {
	core *Core
}

func NewQuestionService(core *Core) ports.QuestionService {
	return &questionService{core: core}
}

func (s *questionService) Create(ctx context.Context, input ports.CreateQuestionInput) (question *domain.Question, err error) {
	const op = "question.create"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, input.PoliticianID, err) }()

	title, body := strings.TrimSpace(input.Title), strings.TrimSpace(input.Body)
	if title == "" || body == "" {
		return nil, domain.E(op, nil, domain.ErrValidation)
	}
	if input.InitialStake < 0 {
		return nil, domain.E(op, input.AskerID, domain.ErrInvalidAmount)
	}

	now := s.core.now()
	deadline := now.Add(s.core.cfg.QuestionTTL)
	if input.Deadline != nil {
		if !input.Deadline.After(now) {
			return nil, domain.E(op, nil, domain.ErrValidation)
		}
		deadline = *input.Deadline
	}

	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		asker, err := tx.Users().GetByID(ctx, input.AskerID)
		if err != nil {
			return err
		}
		if asker.Role != domain.RoleCitizen {
			return domain.E(op, asker.ID, domain.ErrForbidden)
		}
		if err := requirePolitician(ctx, tx, op, input.PoliticianID); err != nil {
			return err
		}

		question = &domain.Question{
			ID:           uuid.New(),
			AskerID:      asker.ID,
			PoliticianID: input.PoliticianID,
			Title:        title,
			Body:         body,
			Deadline:     deadline,
			Status:       domain.StatusOpen,
			CreatedAt:    now,
		}
		if err := tx.Questions().Create(ctx, question); err != nil {
			return err
		}
		_, err = s.core.escrow.Open(ctx, tx, question, input.InitialStake, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.core.logger.InfoContext(ctx, "question created",
		"question_id", question.ID,
		"politician_id", question.PoliticianID,
		"initial_stake", input.InitialStake,
	)
	if input.InitialStake > 0 {
		s.core.metrics.AddStaked(input.InitialStake)
		s.core.emit(ctx, domain.Event{
			Type:       domain.EventStakePlaced,
			QuestionID: question.ID,
			ActorID:    uuidPtr(question.AskerID),
			Amount:     input.InitialStake,
		})
	}
	return question, nil
}

func requirePolitician(ctx context.Context, tx ports.Tx, op string, id uuid.UUID) error {
	user, err := tx.Users().GetByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.E(op, id, domain.ErrUnknownPolitician)
	}
	if err != nil {
		return err
	}
	if user.Role != domain.RolePolitician {
		return domain.E(op, id, domain.ErrUnknownPolitician)
	}
	return nil
}

func (s *questionService) Get(ctx context.Context, id uuid.UUID) (summary *ports.QuestionSummary, err error) {
	const op = "question.get"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, id, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		q, err := tx.Questions().Get(ctx, id)
		if err != nil {
			return err
		}
		summary, err = summarize(ctx, tx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *questionService) List(ctx context.Context, input ports.ListQuestionsInput) (summaries []ports.QuestionSummary, err error) {
	const op = "question.list"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, nil, err) }()

	filter, err := questionFilter(op, input)
	if err != nil {
		return nil, err
	}

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		questions, err := tx.Questions().List(ctx, filter)
		if err != nil {
			return err
		}
		summaries = make([]ports.QuestionSummary, 0, len(questions))
		for _, q := range questions {
			summary, err := summarize(ctx, tx, q)
			if err != nil {
				return err
			}
			summaries = append(summaries, *summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func questionFilter(op string, input ports.ListQuestionsInput) (ports.QuestionFilter, error) {
	filter := ports.QuestionFilter{
		SortBy: domain.SortByRecent,
		Limit:  defaultListLimit,
		Offset: input.Offset,
	}
	if input.Status != "" {
		filter.Status = domain.QuestionStatus(input.Status)
		if !filter.Status.Valid() {
			return filter, domain.E(op, input.Status, domain.ErrValidation)
		}
	}
	if input.SortBy != "" {
		filter.SortBy = domain.QuestionSort(input.SortBy)
		if !filter.SortBy.Valid() {
			return filter, domain.E(op, input.SortBy, domain.ErrValidation)
		}
	}
	if input.PoliticianID != "" {
		id, err := uuid.Parse(input.PoliticianID)
		if err != nil {
			return filter, domain.E(op, input.PoliticianID, domain.ErrValidation)
		}
		filter.PoliticianID = &id
	}
	if input.Limit > 0 {
		filter.Limit = min(input.Limit, maxListLimit)
	}
	if filter.Offset < 0 {
		return filter, domain.E(op, nil, domain.ErrValidation)
	}
	return filter, nil
}

func summarize(ctx context.Context, tx ports.Tx, q *domain.Question) (*ports.QuestionSummary, error) {
	escrow, err := tx.Escrows().Get(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	answer, err := tx.Answers().GetByQuestion(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	summary := &ports.QuestionSummary{
		Question:    q,
		TotalBounty: escrow.TotalBounty,
		StakerCount: escrow.StakerCount(),
		HasAnswer:   answer != nil,
	}
	if answer != nil && answer.TotalVotes() > 0 {
		pct := float64(answer.HelpfulCount) / float64(answer.TotalVotes()) * 100
		summary.HelpfulPercentage = &pct
	}
	return summary, nil
}

func (s *questionService) SubmitAnswer(ctx context.Context, input ports.SubmitAnswerInput) (answer *domain.Answer, err error) {
	const op = "question.answer"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, input.QuestionID, err) }()

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, domain.E(op, input.QuestionID, domain.ErrValidation)
	}

	now := s.core.now()
	err = s.core.store.RunInTx(ctx, func(tx ports.Tx) error {
		q, err := tx.Questions().Get(ctx, input.QuestionID)
		if err != nil {
			return err
		}
		if q.PoliticianID != input.PoliticianID {
			return domain.E(op, q.ID, domain.ErrForbidden)
		}
		existing, err := tx.Answers().GetByQuestion(ctx, q.ID)
		if err != nil {
			return err
		}
		if existing != nil || q.Status == domain.StatusAnswered {
			return domain.E(op, q.ID, domain.ErrAlreadyAnswered)
		}
		if q.Overdue(now) {
			return domain.E(op, q.ID, domain.ErrInvalidTransition)
		}
		if err := q.OpenVoting(now, s.core.cfg.VotingWindow); err != nil {
			return err
		}
		if err := tx.Questions().Save(ctx, q); err != nil {
			return err
		}

		answer = &domain.Answer{
			ID:           uuid.New(),
			QuestionID:   q.ID,
			PoliticianID: q.PoliticianID,
			Content:      content,
			SubmittedAt:  now,
		}
		return tx.Answers().Create(ctx, answer)
	})
	if err != nil {
		return nil, err
	}

	s.core.logger.InfoContext(ctx, "answer submitted",
		"question_id", answer.QuestionID,
		"answer_id", answer.ID,
	)
	s.core.emit(ctx, domain.Event{
		Type:       domain.EventAnswerSubmitted,
		QuestionID: answer.QuestionID,
		AnswerID:   uuidPtr(answer.ID),
		ActorID:    uuidPtr(answer.PoliticianID),
	})

	s.core.scoreInBackground(ctx, *answer)
	return answer, nil
}

// scoreInBackground scores a committed answer without holding up the caller.
// The call outlives the request, so it runs on a detached context bounded by
// ScorerTimeout.
func (c *Core) scoreInBackground(ctx context.Context, answer domain.Answer) {
	if c.scorer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	c.scoring.Add(1)
	go func() {
		defer c.scoring.Done()
		c.scoreAnswer(ctx, &answer)
	}()
}

// WaitForScoring blocks until every background scoring call has returned.
func (c *Core) WaitForScoring() {
	c.scoring.Wait()
}

// scoreAnswer calls the external scorer with no lock held. The score is stored
// only if voting has not been finalized meanwhile and no score was recorded
// yet.
func (c *Core) scoreAnswer(ctx context.Context, answer *domain.Answer) {
	sctx, cancel := context.WithTimeout(ctx, c.cfg.ScorerTimeout)
	defer cancel()
	score, err := c.scorer.Score(sctx, answer.Content)
	if err != nil {
		c.logger.WarnContext(ctx, "directness scorer failed",
			"answer_id", answer.ID,
			"error", err,
		)
		return
	}
	if score == nil {
		return
	}

	stored := false
	err = c.store.RunInTx(ctx, func(tx ports.Tx) error {
		if _, err := tx.Questions().Get(ctx, answer.QuestionID); err != nil {
			return err
		}
		escrow, err := tx.Escrows().Get(ctx, answer.QuestionID)
		if err != nil {
			return err
		}
		if escrow.Finalized {
			return nil
		}
		current, err := tx.Answers().Get(ctx, answer.ID)
		if err != nil {
			return err
		}
		if current.DirectnessScore != nil {
			return nil
		}
		current.DirectnessScore = score
		if err := current.Check(); err != nil {
			return err
		}
		stored = true
		return tx.Answers().Save(ctx, current)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to store directness score",
			"answer_id", answer.ID,
			"error", err,
		)
		return
	}
	if !stored {
		return
	}

	c.emit(ctx, domain.Event{
		Type:       domain.EventAnswerScored,
		QuestionID: answer.QuestionID,
		AnswerID:   uuidPtr(answer.ID),
		Amount:     int64(*score),
	})
}

func (s *questionService) GetAnswer(ctx context.Context, questionID uuid.UUID) (answer *domain.Answer, err error) {
	const op = "question.get_answer"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, questionID, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		if _, err := tx.Questions().Get(ctx, questionID); err != nil {
			return err
		}
		answer, err = tx.Answers().GetByQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		if answer == nil {
			return domain.E(op, questionID, domain.ErrAnswerNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *questionService) Finalize(ctx context.Context, questionID uuid.UUID) (settlement *domain.Settlement, err error) {
	const op = "question.finalize"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, questionID, err) }()

	return s.core.resolve(ctx, questionID, false)
}

// resolve applies the automatic transition a question is due for. An overdue
// open question expires and refunds its stakers. An answered question whose
// voting window closed (or, with early set, any answered question) releases
// its bounty and updates the politician's rating from the final satisfaction.
// Everything happens in one transaction, so a racing vote either lands before
// the tally is read or is rejected once the question is finalized.
func (c *Core) resolve(ctx context.Context, questionID uuid.UUID, early bool) (*domain.Settlement, error) {
	const op = "question.resolve"
	now := c.now()

	var (
		settlement *domain.Settlement
		change     *domain.RatingChange
	)
	err := c.store.RunInTx(ctx, func(tx ports.Tx) error {
		q, err := tx.Questions().Get(ctx, questionID)
		if err != nil {
			return err
		}
		escrow, err := tx.Escrows().Get(ctx, questionID)
		if err != nil {
			return err
		}
		if escrow.Finalized || q.FinalizedAt != nil {
			return domain.E(op, questionID, domain.ErrAlreadyFinalized)
		}

		switch {
		case q.Overdue(now):
			if err := q.Transition(domain.StatusExpired); err != nil {
				return err
			}
			settlement, err = c.escrow.Finalize(ctx, tx, escrow, q, domain.OutcomeRefunded, now)
			if err != nil {
				return err
			}

		case q.VotingDue(now) || (early && q.Status == domain.StatusAnswered):
			answer, err := tx.Answers().GetByQuestion(ctx, questionID)
			if err != nil {
				return err
			}
			if answer == nil {
				return domain.E(op, questionID, domain.ErrInvariantViolation)
			}
			settlement, err = c.escrow.Finalize(ctx, tx, escrow, q, domain.OutcomeReleased, now)
			if err != nil {
				return err
			}
			change, err = c.rating.Update(ctx, tx, q.PoliticianID, q.ID, answer.Satisfaction(), now)
			if err != nil {
				return err
			}

		default:
			return domain.E(op, questionID, domain.ErrInvalidTransition)
		}

		q.Finalize(now)
		return tx.Questions().Save(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveSettlement(string(settlement.Outcome), settlement.Total)
	c.rating.observe(change)
	c.logger.InfoContext(ctx, "question finalized",
		"question_id", questionID,
		"outcome", settlement.Outcome,
		"total", settlement.Total,
	)
	c.emit(ctx, domain.Event{
		Type:       domain.EventQuestionFinalized,
		QuestionID: questionID,
		Amount:     settlement.Total,
		Outcome:    settlement.Outcome,
	})
	return settlement, nil
}
