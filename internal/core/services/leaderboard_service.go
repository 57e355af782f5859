package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type leaderboardService struct {
	core *Core
}

func NewLeaderboardService(core *Core) ports.LeaderboardService {
	return &leaderboardService{core: core}
}

// Leaderboard ranks every politician. The order is total, so rank is simply
// the 1-based position.
func (s *leaderboardService) Leaderboard(ctx context.Context, limit, offset int) (entries []ports.LeaderboardEntry, err error) {
	const op = "leaderboard.list"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, nil, err) }()

	if limit < 0 || offset < 0 {
		return nil, domain.E(op, nil, domain.ErrValidation)
	}

	var ranked []ports.LeaderboardEntry
	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		ranked, err = rankAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if offset >= len(ranked) {
		return []ports.LeaderboardEntry{}, nil
	}
	ranked = ranked[offset:]
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func rankAll(ctx context.Context, tx ports.Tx) ([]ports.LeaderboardEntry, error) {
	ratings, err := tx.Ratings().List(ctx)
	if err != nil {
		return nil, err
	}
	domain.RankOrder(ratings)

	entries := make([]ports.LeaderboardEntry, 0, len(ratings))
	for i := range ratings {
		entries = append(entries, entryFor(&ratings[i], i+1))
	}
	return entries, nil
}

func entryFor(r *domain.PoliticianRating, rank int) ports.LeaderboardEntry {
	return ports.LeaderboardEntry{
		PoliticianID:      r.PoliticianID,
		DisplayName:       r.DisplayName,
		Mu:                r.Mu,
		Sigma:             r.Sigma,
		ConservativeScore: r.ConservativeScore(),
		QuestionsAnswered: r.QuestionsAnswered,
		Rank:              rank,
	}
}

func (s *leaderboardService) Politician(ctx context.Context, id uuid.UUID) (detail *ports.PoliticianDetail, err error) {
	const op = "leaderboard.politician"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, id, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		if _, err := tx.Ratings().Get(ctx, id); err != nil {
			return err
		}
		ranked, err := rankAll(ctx, tx)
		if err != nil {
			return err
		}
		detail = &ports.PoliticianDetail{}
		for _, e := range ranked {
			if e.PoliticianID == id {
				detail.LeaderboardEntry = e
				break
			}
		}

		questions, err := tx.Questions().List(ctx, ports.QuestionFilter{
			PoliticianID: &id,
			SortBy:       domain.SortByRecent,
		})
		if err != nil {
			return err
		}
		detail.QuestionsReceived = len(questions)
		for _, q := range questions {
			escrow, err := tx.Escrows().Get(ctx, q.ID)
			if err != nil {
				return err
			}
			if !escrow.Finalized {
				detail.OpenBountyTotal += escrow.TotalBounty
			}
		}

		if detail.TotalCharityReleased, err = tx.Payouts().TotalByPolitician(ctx, id); err != nil {
			return err
		}
		wallet, err := tx.Wallets().Get(ctx, id)
		if err != nil {
			return err
		}
		detail.TotalBountyEarned = wallet.EarnedOrReleased

		if detail.History, err = tx.Ratings().History(ctx, id); err != nil {
			return err
		}
		if len(detail.History) > 0 {
			var sum float64
			for _, h := range detail.History {
				sum += h.Satisfaction
			}
			rate := sum / float64(len(detail.History))
			detail.SatisfactionRate = &rate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *leaderboardService) Stats(ctx context.Context) (stats *ports.DashboardStats, err error) {
	const op = "leaderboard.stats"
	ctx, span := s.core.startSpan(ctx, op)
	defer func() { err = s.core.finish(ctx, span, op, nil, err) }()

	err = s.core.store.View(ctx, func(tx ports.Tx) error {
		questions, err := tx.Questions().List(ctx, ports.QuestionFilter{SortBy: domain.SortByRecent})
		if err != nil {
			return err
		}
		ratings, err := tx.Ratings().List(ctx)
		if err != nil {
			return err
		}
		released, err := tx.Payouts().Total(ctx)
		if err != nil {
			return err
		}

		stats = &ports.DashboardStats{
			QuestionsAsked:    len(questions),
			ReleasedToCharity: released,
			PoliticiansRanked: len(ratings),
		}
		for _, q := range questions {
			if q.Status == domain.StatusAnswered {
				stats.QuestionsAnswered++
			}
		}
		if stats.QuestionsAsked > 0 {
			stats.ResponseRate = float64(stats.QuestionsAnswered) / float64(stats.QuestionsAsked)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
