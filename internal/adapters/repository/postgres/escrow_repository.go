package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type escrowRepository struct{ t *tx }

func (r escrowRepository) Create(ctx context.Context, escrow *domain.Escrow) error {
	query := `
		INSERT INTO escrows (question_id, total_bounty, finalized)
		VALUES ($1, 0, FALSE)
	`
	if _, err := r.t.q.ExecContext(ctx, query, escrow.QuestionID); err != nil {
		return fmt.Errorf("failed to insert escrow: %w", err)
	}
	for _, c := range escrow.Contributions {
		if err := r.AddContribution(ctx, escrow, c); err != nil {
			return err
		}
	}
	return nil
}

func (r escrowRepository) Get(ctx context.Context, questionID uuid.UUID) (*domain.Escrow, error) {
	query := `
		SELECT question_id, total_bounty, finalized, outcome, finalized_at
		FROM escrows
		WHERE question_id = $1` + r.t.lock

	var (
		e           domain.Escrow
		outcome     sql.NullString
		finalizedAt sql.NullTime
	)
	err := r.t.q.QueryRowContext(ctx, query, questionID).Scan(
		&e.QuestionID, &e.TotalBounty, &e.Finalized, &outcome, &finalizedAt,
	)
	if err != nil {
		return nil, notFound(err, "escrow.get", questionID, domain.ErrQuestionNotFound)
	}
	e.Outcome = domain.Outcome(outcome.String)
	e.FinalizedAt = timePtr(finalizedAt)

	contributions, err := r.fetchContributions(ctx, questionID)
	if err != nil {
		return nil, err
	}
	e.Contributions = contributions
	return &e, nil
}

func (r escrowRepository) fetchContributions(ctx context.Context, questionID uuid.UUID) ([]domain.Contribution, error) {
	query := `
		SELECT seq, citizen_id, amount, contributed_at
		FROM escrow_contributions
		WHERE question_id = $1
		ORDER BY seq
	`
	rows, err := r.t.q.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	var contributions []domain.Contribution
	for rows.Next() {
		var c domain.Contribution
		if err := rows.Scan(&c.Seq, &c.CitizenID, &c.Amount, &c.At); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contributions: %w", err)
	}
	return contributions, nil
}

func (r escrowRepository) AddContribution(ctx context.Context, escrow *domain.Escrow, c domain.Contribution) error {
	insert := `
		INSERT INTO escrow_contributions (question_id, seq, citizen_id, amount, contributed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.t.q.ExecContext(ctx, insert, escrow.QuestionID, c.Seq, c.CitizenID, c.Amount, c.At); err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}

	update := `UPDATE escrows SET total_bounty = total_bounty + $2 WHERE question_id = $1`
	res, err := r.t.q.ExecContext(ctx, update, escrow.QuestionID, c.Amount)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return notFound(err, "escrow.stake", escrow.QuestionID, domain.ErrQuestionNotFound)
	}
	return nil
}

func (r escrowRepository) MarkFinalized(ctx context.Context, escrow *domain.Escrow) error {
	query := `
		UPDATE escrows
		SET finalized = TRUE, outcome = $2, finalized_at = $3
		WHERE question_id = $1 AND NOT finalized
	`
	res, err := r.t.q.ExecContext(ctx, query, escrow.QuestionID, escrow.Outcome, nullTime(escrow.FinalizedAt))
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return notFound(err, "escrow.finalize", escrow.QuestionID, domain.ErrAlreadySettled)
	}
	return nil
}
