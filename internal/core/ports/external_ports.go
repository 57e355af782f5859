package ports

import (
	"context"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

//go:generate mockgen -source=external_ports.go -destination=mocks/mock_external_ports.go -package=mocks

// DirectnessScorer rates how non-evasive an answer is. A nil score means the
// scorer had no opinion.
type DirectnessScorer interface {
	Score(ctx context.Context, text string) (*int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// CharitySink receives released bounties. Payout ids are stable, so sinks can
// deduplicate redeliveries.
type CharitySink interface {
	Disburse(ctx context.Context, payout domain.CharityPayout) error
}
