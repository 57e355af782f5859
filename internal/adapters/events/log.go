package events

import (
	"context"
	"log/slog"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

// LogPublisher writes events to the structured log. It is the default bus
// when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.logger.InfoContext(ctx, "event",
		"event_id", event.ID,
		"type", event.Type,
		"question_id", event.QuestionID,
		"amount", event.Amount,
		"outcome", event.Outcome,
	)
	return nil
}
