package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

type StakeInput struct {
	QuestionID uuid.UUID
	CitizenID  uuid.UUID
	Amount     int64
}

type BountyDetails struct {
	QuestionID  uuid.UUID            `json:"question_id"`
	TotalBounty int64                `json:"total_bounty"`
	StakerCount int                  `json:"staker_count"`
	TopStakers  []domain.StakerTotal `json:"top_stakers"`
	Finalized   bool                 `json:"finalized"`
	Outcome     domain.Outcome       `json:"outcome,omitempty"`
}

type LedgerService interface {
	Purchase(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Wallet, error)
	Wallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

type BountyService interface {
	Stake(ctx context.Context, input StakeInput) (*domain.Escrow, error)
	Details(ctx context.Context, questionID uuid.UUID) (*BountyDetails, error)
}

// PayoutService hands released bounties to the charity sink.
type PayoutService interface {
	DeliverPending(ctx context.Context) (int, error)
}
