package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type LeaderboardEntry struct {
	PoliticianID      uuid.UUID `json:"politician_id"`
	DisplayName       string    `json:"display_name"`
	Mu                float64   `json:"mu"`
	Sigma             float64   `json:"sigma"`
	ConservativeScore float64   `json:"conservative_score"`
	QuestionsAnswered int       `json:"questions_answered"`
	Rank              int       `json:"rank"`
}

type PoliticianDetail struct {
	LeaderboardEntry
	OpenBountyTotal      int64                 `json:"open_bounty_total"`
	TotalCharityReleased int64                 `json:"total_charity_released"`
	TotalBountyEarned    int64                 `json:"total_bounty_earned"`
	QuestionsReceived    int                   `json:"questions_received"`
	SatisfactionRate     *float64              `json:"satisfaction_rate,omitempty"`
	History              []domain.RatingChange `json:"history"`
}

type DashboardStats struct {
	QuestionsAsked    int     `json:"questions_asked"`
	QuestionsAnswered int     `json:"questions_answered"`
	ResponseRate      float64 `json:"response_rate"`
	ReleasedToCharity int64   `json:"released_to_charity"`
	PoliticiansRanked int     `json:"politicians_ranked"`
}

type LeaderboardService interface {
	Leaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error)
	Politician(ctx context.Context, id uuid.UUID) (*PoliticianDetail, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}
