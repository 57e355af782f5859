package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type questionRepository struct{ t *tx }

const questionColumns = `q.id, q.asker_id, q.politician_id, q.title, q.body, q.deadline,
		q.status, q.created_at, q.voting_closes_at, q.finalized_at`

func (r questionRepository) Create(ctx context.Context, question *domain.Question) error {
	query := `
		INSERT INTO questions (id, asker_id, politician_id, title, body, deadline, status, created_at, voting_closes_at, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.t.q.ExecContext(ctx, query,
		question.ID, question.AskerID, question.PoliticianID, question.Title, question.Body, question.Deadline,
		question.Status, question.CreatedAt, nullTime(question.VotingClosesAt), nullTime(question.FinalizedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (r questionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q WHERE q.id = $1` + r.t.lock
	q, err := scanQuestion(r.t.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "question.get", id, domain.ErrQuestionNotFound)
	}
	return q, nil
}

func (r questionRepository) Save(ctx context.Context, question *domain.Question) error {
	query := `
		UPDATE questions
		SET status = $2, deadline = $3, voting_closes_at = $4, finalized_at = $5
		WHERE id = $1
	`
	res, err := r.t.q.ExecContext(ctx, query,
		question.ID, question.Status, question.Deadline, nullTime(question.VotingClosesAt), nullTime(question.FinalizedAt),
	)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return notFound(err, "question.save", question.ID, domain.ErrQuestionNotFound)
	}
	return nil
}

var questionOrder = map[domain.QuestionSort]string{
	domain.SortByBounty:   `e.total_bounty DESC, q.created_at DESC, q.id`,
	domain.SortByDeadline: `q.deadline ASC, q.created_at DESC, q.id`,
	domain.SortByRecent:   `q.created_at DESC, q.id`,
}

func (r questionRepository) List(ctx context.Context, filter ports.QuestionFilter) ([]*domain.Question, error) {
	order, ok := questionOrder[filter.SortBy]
	if !ok {
		order = questionOrder[domain.SortByRecent]
	}
	var limit any
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	query := `
		SELECT ` + questionColumns + `
		FROM questions q
		JOIN escrows e ON e.question_id = q.id
		WHERE ($1 = '' OR q.status = $1)
		  AND ($2::uuid IS NULL OR q.politician_id = $2)
		ORDER BY ` + order + `
		LIMIT $3 OFFSET $4
	`
	var politician any
	if filter.PoliticianID != nil {
		politician = *filter.PoliticianID
	}
	rows, err := r.t.q.QueryContext(ctx, query, string(filter.Status), politician, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []*domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}

func (r questionRepository) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM questions
		WHERE (status = 'open' AND deadline < $1)
		   OR (status = 'answered' AND finalized_at IS NULL AND voting_closes_at <= $1)
		ORDER BY deadline
	`
	rows, err := r.t.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due questions: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due questions: %w", err)
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (*domain.Question, error) {
	var (
		q         domain.Question
		closes    sql.NullTime
		finalized sql.NullTime
	)
	err := row.Scan(&q.ID, &q.AskerID, &q.PoliticianID, &q.Title, &q.Body, &q.Deadline,
		&q.Status, &q.CreatedAt, &closes, &finalized)
	if err != nil {
		return nil, err
	}
	q.VotingClosesAt = timePtr(closes)
	q.FinalizedAt = timePtr(finalized)
	return &q, nil
}
