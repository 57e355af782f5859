package domain

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RatingParams configures the skill model. Mu0/Sigma0 is the prior given at
// registration, Beta the performance noise, and each resolved question is
// scored as a match against a fixed reference opponent.
type RatingParams struct {
	Mu0            float64
	Sigma0         float64
	Beta           float64
	SigmaMin       float64
	ReferenceMu    float64
	ReferenceSigma float64
	Kappa          float64
}

func DefaultRatingParams() RatingParams {
	return RatingParams{
		Mu0:         25,
		Sigma0:      25.0 / 3,
		Beta:        25.0 / 6,
		SigmaMin:    1,
		ReferenceMu: 25,
		Kappa:       0.0001,
	}
}

// Update applies a Weng-Lin Bradley-Terry update for a single match against the
// reference opponent. outcome is the observed score in [0,1]. mu moves toward
// the outcome and sigma strictly shrinks, never below SigmaMin.
func (p RatingParams) Update(mu, sigma, outcome float64) (float64, float64) {
	outcome = math.Max(0, math.Min(1, outcome))

	variance := sigma * sigma
	c := math.Sqrt(variance + p.ReferenceSigma*p.ReferenceSigma + 2*p.Beta*p.Beta)
	expected := 1 / (1 + math.Exp((p.ReferenceMu-mu)/c))

	newMu := mu + variance/c*(outcome-expected)

	gamma := sigma / c
	delta := gamma * variance / (c * c) * expected * (1 - expected)
	newSigma := sigma * math.Sqrt(math.Max(1-delta, p.Kappa))
	if newSigma < p.SigmaMin {
		newSigma = p.SigmaMin
	}
	return newMu, newSigma
}

type PoliticianRating struct {
	PoliticianID      uuid.UUID `json:"politician_id"`
	DisplayName       string    `json:"display_name"`
	Mu                float64   `json:"mu"`
	Sigma             float64   `json:"sigma"`
	QuestionsAnswered int       `json:"questions_answered"`
	RegisteredAt      time.Time `json:"registered_at"`
}

// ConservativeScore is max(0, mu - 3*sigma).
func (r *PoliticianRating) ConservativeScore() float64 {
	return math.Max(0, r.Mu-3*r.Sigma)
}

func (r *PoliticianRating) Check() error {
	if !(r.Sigma > 0) || math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) {
		return E("rating.check", r.PoliticianID, ErrInvariantViolation)
	}
	return nil
}

// RatingChange is one audit row per applied update.
type RatingChange struct {
	PoliticianID uuid.UUID `json:"politician_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	OldMu        float64   `json:"old_mu"`
	OldSigma     float64   `json:"old_sigma"`
	NewMu        float64   `json:"new_mu"`
	NewSigma     float64   `json:"new_sigma"`
	Satisfaction float64   `json:"satisfaction"`
	At           time.Time `json:"at"`
}

// RankOrder sorts ratings into leaderboard order: conservative score
// descending, then lower sigma, then earlier registration. The id is a last
// resort so the order is total.
func RankOrder(ratings []PoliticianRating) {
	sort.SliceStable(ratings, func(i, j int) bool {
		a, b := &ratings[i], &ratings[j]
		if sa, sb := a.ConservativeScore(), b.ConservativeScore(); sa != sb {
			return sa > sb
		}
		if a.Sigma != b.Sigma {
			return a.Sigma < b.Sigma
		}
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.Before(b.RegisteredAt)
		}
		return a.PoliticianID.String() < b.PoliticianID.String()
	})
}
