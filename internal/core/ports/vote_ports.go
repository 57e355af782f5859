package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type VoteInput struct {
	AnswerID  uuid.UUID
	VoterID   uuid.UUID
	IsHelpful bool
}

type AnswerVotes struct {
	AnswerID        uuid.UUID `json:"answer_id"`
	HelpfulVotes    int64     `json:"helpful_votes"`
	EvasiveVotes    int64     `json:"evasive_votes"`
	TotalVotes      int64     `json:"total_votes"`
	DirectnessScore *int      `json:"ai_directness_score,omitempty"`
	Satisfaction    float64   `json:"satisfaction"`
	UserVote        *bool     `json:"user_vote"`
	CanVote         bool      `json:"can_vote"`
	VotingOpen      bool      `json:"voting_open"`
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Answer, error)
	// Votes reads the live tally. viewer may be uuid.Nil for anonymous reads.
	Votes(ctx context.Context, answerID, viewer uuid.UUID) (*AnswerVotes, error)
}
