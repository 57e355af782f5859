package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type CreateQuestionInput struct {
	AskerID      uuid.UUID
	PoliticianID uuid.UUID
	Title        string
	Body         string
	InitialStake int64
	// Deadline is optional; the configured question lifetime applies when nil.
	Deadline *time.Time
}

type SubmitAnswerInput struct {
	QuestionID   uuid.UUID
	PoliticianID uuid.UUID
	Content      string
}

type ListQuestionsInput struct {
	Status       string
	PoliticianID string
	SortBy       string
	Limit        int
	Offset       int
}

// QuestionSummary is a question row with its bounty and answer aggregates.
type QuestionSummary struct {
	*domain.Question
	TotalBounty       int64    `json:"total_bounty"`
	StakerCount       int      `json:"staker_count"`
	HasAnswer         bool     `json:"has_answer"`
	HelpfulPercentage *float64 `json:"helpful_percentage,omitempty"`
}

type QuestionService interface {
	Create(ctx context.Context, input CreateQuestionInput) (*domain.Question, error)
	Get(ctx context.Context, id uuid.UUID) (*QuestionSummary, error)
	List(ctx context.Context, input ListQuestionsInput) ([]QuestionSummary, error)
	SubmitAnswer(ctx context.Context, input SubmitAnswerInput) (*domain.Answer, error)
	GetAnswer(ctx context.Context, questionID uuid.UUID) (*domain.Answer, error)
	// Finalize resolves a question whose deadline or voting window has passed.
	Finalize(ctx context.Context, questionID uuid.UUID) (*domain.Settlement, error)
}

// ModerationService injects external moderation decisions.
type ModerationService interface {
	Flag(ctx context.Context, questionID uuid.UUID) (*domain.Question, error)
	RefundFlagged(ctx context.Context, questionID uuid.UUID) (*domain.Settlement, error)
}

type SweepReport struct {
	Expired  int
	Released int
	Skipped  int
	Failed   int
}

// SweepService drives the deadline-based transitions.
type SweepService interface {
	Sweep(ctx context.Context) (SweepReport, error)
}
