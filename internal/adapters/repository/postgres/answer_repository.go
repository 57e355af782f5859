package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type answerRepository struct{ t *tx }

const answerColumns = `id, question_id, politician_id, content, submitted_at, directness_score, helpful_count, evasive_count`

func (r answerRepository) Create(ctx context.Context, answer *domain.Answer) error {
	query := `
		INSERT INTO answers (` + answerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.t.q.ExecContext(ctx, query,
		answer.ID, answer.QuestionID, answer.PoliticianID, answer.Content, answer.SubmittedAt,
		nullInt(answer.DirectnessScore), answer.HelpfulCount, answer.EvasiveCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E("answer.create", answer.QuestionID, domain.ErrAlreadyAnswered)
		}
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

func (r answerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE id = $1` + r.t.lock
	a, err := scanAnswer(r.t.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "answer.get", id, domain.ErrAnswerNotFound)
	}
	return a, nil
}

func (r answerRepository) GetByQuestion(ctx context.Context, questionID uuid.UUID) (*domain.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE question_id = $1` + r.t.lock
	a, err := scanAnswer(r.t.q.QueryRowContext(ctx, query, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

func (r answerRepository) Save(ctx context.Context, answer *domain.Answer) error {
	query := `
		UPDATE answers
		SET directness_score = $2, helpful_count = $3, evasive_count = $4
		WHERE id = $1
	`
	res, err := r.t.q.ExecContext(ctx, query,
		answer.ID, nullInt(answer.DirectnessScore), answer.HelpfulCount, answer.EvasiveCount,
	)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return notFound(err, "answer.save", answer.ID, domain.ErrAnswerNotFound)
	}
	return nil
}

func scanAnswer(row scanner) (*domain.Answer, error) {
	var (
		a     domain.Answer
		score sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.QuestionID, &a.PoliticianID, &a.Content, &a.SubmittedAt,
		&score, &a.HelpfulCount, &a.EvasiveCount)
	if err != nil {
		return nil, err
	}
	a.DirectnessScore = intPtr(score)
	return &a, nil
}

type voteRepository struct{ t *tx }

func (r voteRepository) Get(ctx context.Context, answerID, voterID uuid.UUID) (*domain.Vote, error) {
	query := `
		SELECT answer_id, voter_id, is_helpful, cast_at
		FROM votes
		WHERE answer_id = $1 AND voter_id = $2
	`
	v := &domain.Vote{}
	err := r.t.q.QueryRowContext(ctx, query, answerID, voterID).Scan(&v.AnswerID, &v.VoterID, &v.IsHelpful, &v.CastAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return v, nil
}

func (r voteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (answer_id, voter_id, is_helpful, cast_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (answer_id, voter_id)
		DO UPDATE SET is_helpful = EXCLUDED.is_helpful, cast_at = EXCLUDED.cast_at
	`
	_, err := r.t.q.ExecContext(ctx, query, vote.AnswerID, vote.VoterID, vote.IsHelpful, vote.CastAt)
	if err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}
