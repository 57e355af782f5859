package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type ratingRepository struct{ t *tx }

func (r ratingRepository) Create(ctx context.Context, rating *domain.PoliticianRating) error {
	query := `
		INSERT INTO politician_ratings (politician_id, display_name, mu, sigma, questions_answered, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.t.q.ExecContext(ctx, query,
		rating.PoliticianID, rating.DisplayName, rating.Mu, rating.Sigma, rating.QuestionsAnswered, rating.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E("rating.create", rating.PoliticianID, domain.ErrAlreadyRegistered)
		}
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}

func (r ratingRepository) Get(ctx context.Context, politicianID uuid.UUID) (*domain.PoliticianRating, error) {
	query := `
		SELECT politician_id, display_name, mu, sigma, questions_answered, registered_at
		FROM politician_ratings
		WHERE politician_id = $1` + r.t.lock

	rating := &domain.PoliticianRating{}
	err := r.t.q.QueryRowContext(ctx, query, politicianID).Scan(
		&rating.PoliticianID, &rating.DisplayName, &rating.Mu, &rating.Sigma, &rating.QuestionsAnswered, &rating.RegisteredAt,
	)
	if err != nil {
		return nil, notFound(err, "rating.get", politicianID, domain.ErrUnknownPolitician)
	}
	return rating, nil
}

func (r ratingRepository) Save(ctx context.Context, rating *domain.PoliticianRating) error {
	query := `
		UPDATE politician_ratings
		SET mu = $2, sigma = $3, questions_answered = $4
		WHERE politician_id = $1
	`
	res, err := r.t.q.ExecContext(ctx, query, rating.PoliticianID, rating.Mu, rating.Sigma, rating.QuestionsAnswered)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return notFound(err, "rating.save", rating.PoliticianID, domain.ErrUnknownPolitician)
	}
	return nil
}

func (r ratingRepository) List(ctx context.Context) ([]domain.PoliticianRating, error) {
	query := `
		SELECT politician_id, display_name, mu, sigma, questions_answered, registered_at
		FROM politician_ratings
	`
	rows, err := r.t.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.PoliticianRating
	for rows.Next() {
		var rating domain.PoliticianRating
		err := rows.Scan(&rating.PoliticianID, &rating.DisplayName, &rating.Mu, &rating.Sigma,
			&rating.QuestionsAnswered, &rating.RegisteredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return ratings, nil
}

func (r ratingRepository) AppendHistory(ctx context.Context, change *domain.RatingChange) error {
	query := `
		INSERT INTO rating_history (politician_id, question_id, old_mu, old_sigma, new_mu, new_sigma, satisfaction, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.t.q.ExecContext(ctx, query,
		change.PoliticianID, change.QuestionID, change.OldMu, change.OldSigma,
		change.NewMu, change.NewSigma, change.Satisfaction, change.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rating change: %w", err)
	}
	return nil
}

func (r ratingRepository) History(ctx context.Context, politicianID uuid.UUID) ([]domain.RatingChange, error) {
	query := `
		SELECT politician_id, question_id, old_mu, old_sigma, new_mu, new_sigma, satisfaction, changed_at
		FROM rating_history
		WHERE politician_id = $1
		ORDER BY id
	`
	rows, err := r.t.q.QueryContext(ctx, query, politicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating history: %w", err)
	}
	defer rows.Close()

	history := []domain.RatingChange{}
	for rows.Next() {
		var c domain.RatingChange
		err := rows.Scan(&c.PoliticianID, &c.QuestionID, &c.OldMu, &c.OldSigma,
			&c.NewMu, &c.NewSigma, &c.Satisfaction, &c.At)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating change: %w", err)
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating history: %w", err)
	}
	return history, nil
}

type payoutRepository struct{ t *tx }

func (r payoutRepository) Create(ctx context.Context, payout *domain.CharityPayout) error {
	query := `
		INSERT INTO charity_payouts (id, question_id, politician_id, amount, created_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.t.q.ExecContext(ctx, query,
		payout.ID, payout.QuestionID, payout.PoliticianID, payout.Amount, payout.CreatedAt, nullTime(payout.DeliveredAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E("payout.create", payout.QuestionID, domain.ErrAlreadySettled)
		}
		return fmt.Errorf("failed to insert payout: %w", err)
	}
	return nil
}

func (r payoutRepository) ListPending(ctx context.Context, limit int) ([]*domain.CharityPayout, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	query := `
		SELECT id, question_id, politician_id, amount, created_at
		FROM charity_payouts
		WHERE delivered_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := r.t.q.QueryContext(ctx, query, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payouts: %w", err)
	}
	defer rows.Close()

	payouts := []*domain.CharityPayout{}
	for rows.Next() {
		var p domain.CharityPayout
		if err := rows.Scan(&p.ID, &p.QuestionID, &p.PoliticianID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payouts: %w", err)
	}
	return payouts, nil
}

func (r payoutRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE charity_payouts SET delivered_at = $2 WHERE id = $1`
	res, err := r.t.q.ExecContext(ctx, query, id, at)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		return fmt.Errorf("failed to mark payout %s delivered: %w", id, err)
	}
	return nil
}

func (r payoutRepository) Total(ctx context.Context) (int64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM charity_payouts`)
}

func (r payoutRepository) TotalByPolitician(ctx context.Context, politicianID uuid.UUID) (int64, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM charity_payouts WHERE politician_id = $1`, politicianID)
}

func (r payoutRepository) sum(ctx context.Context, query string, args ...any) (int64, error) {
	var total sql.NullInt64
	if err := r.t.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum payouts: %w", err)
	}
	return total.Int64, nil
}
