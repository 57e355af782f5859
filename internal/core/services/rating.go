package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
	"github.com/vncsmyrnk/civicstake/internal/platform/metrics"
)

// RatingEngine keeps one Bayesian skill estimate per politician.
type RatingEngine struct {
	params  domain.RatingParams
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Register creates the prior rating for a new politician.
func (r *RatingEngine) Register(ctx context.Context, tx ports.Tx, user *domain.User) (*domain.PoliticianRating, error) {
	rating := &domain.PoliticianRating{
		PoliticianID: user.ID,
		DisplayName:  user.DisplayName,
		Mu:           r.params.Mu0,
		Sigma:        r.params.Sigma0,
		RegisteredAt: user.CreatedAt,
	}
	if err := rating.Check(); err != nil {
		return nil, err
	}
	if err := tx.Ratings().Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// Update applies one resolved question to the politician's rating. It runs in
// the same transaction as the escrow release, so a question is counted at most
// once. Every politician gets a rating at registration, so a missing one is
// reported as an invariant violation.
func (r *RatingEngine) Update(ctx context.Context, tx ports.Tx, politicianID, questionID uuid.UUID, satisfaction float64, at time.Time) (*domain.RatingChange, error) {
	rating, err := tx.Ratings().Get(ctx, politicianID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPolitician) {
			return nil, domain.E("rating.update", politicianID, fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err))
		}
		return nil, err
	}

	change := &domain.RatingChange{
		PoliticianID: politicianID,
		QuestionID:   questionID,
		OldMu:        rating.Mu,
		OldSigma:     rating.Sigma,
		Satisfaction: satisfaction,
		At:           at,
	}
	rating.Mu, rating.Sigma = r.params.Update(rating.Mu, rating.Sigma, satisfaction)
	rating.QuestionsAnswered++
	change.NewMu, change.NewSigma = rating.Mu, rating.Sigma

	if err := rating.Check(); err != nil {
		return nil, err
	}
	if err := tx.Ratings().Save(ctx, rating); err != nil {
		return nil, err
	}
	if err := tx.Ratings().AppendHistory(ctx, change); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "rating updated",
		"politician_id", politicianID,
		"question_id", questionID,
		"mu", rating.Mu,
		"sigma", rating.Sigma,
	)
	return change, nil
}

func (r *RatingEngine) observe(change *domain.RatingChange) {
	if change == nil {
		return
	}
	r.metrics.ObserveMuDelta(change.NewMu - change.OldMu)
}
