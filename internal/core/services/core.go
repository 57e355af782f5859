package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
	"github.com/vncsmyrnk/civicstake/internal/platform/logger"
	"github.com/vncsmyrnk/civicstake/internal/platform/metrics"
)

const tracerName = "github.com/vncsmyrnk/civicstake/internal/core/services"

type Config struct {
	PurchaseCap      int64
	QuestionTTL      time.Duration
	VotingWindow     time.Duration
	VoteQuorum       int
	SweepConcurrency int
	PayoutBatchSize  int
	ScorerTimeout    time.Duration
	Rating           domain.RatingParams
}

func DefaultConfig() Config {
	return Config{
		PurchaseCap:      1000,
		QuestionTTL:      7 * 24 * time.Hour,
		VotingWindow:     72 * time.Hour,
		SweepConcurrency: 8,
		PayoutBatchSize:  50,
		ScorerTimeout:    10 * time.Second,
		Rating:           domain.DefaultRatingParams(),
	}
}

// Core holds the engine components and the collaborators shared by every
// service built on top of it.
type Core struct {
	store     ports.Store
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	publisher ports.EventPublisher
	scorer    ports.DirectnessScorer
	now       func() time.Time
	scoring   sync.WaitGroup

	ledger *Ledger
	escrow *Escrow
	rating *RatingEngine
	tally  *Tally
}

type Option func(c *Core)

func WithLogger(l *slog.Logger) Option {
	return func(c *Core) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Core) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Core) {
		c.tracer = t
	}
}

func WithPublisher(p ports.EventPublisher) Option {
	return func(c *Core) {
		c.publisher = p
	}
}

func WithScorer(s ports.DirectnessScorer) Option {
	return func(c *Core) {
		c.scorer = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Core) {
		c.now = now
	}
}

func NewCore(store ports.Store, cfg Config, opts ...Option) *Core {
	c := &Core{
		store:  store,
		cfg:    cfg,
		logger: logger.Discard(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.SweepConcurrency <= 0 {
		c.cfg.SweepConcurrency = 1
	}

	c.ledger = &Ledger{purchaseCap: cfg.PurchaseCap}
	c.escrow = &Escrow{ledger: c.ledger}
	c.rating = &RatingEngine{params: cfg.Rating, logger: c.logger, metrics: c.metrics}
	c.tally = &Tally{}
	return c
}

func (c *Core) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name)
}

// finish ends span and converts invariant violations into an opaque internal
// error after logging them. Ordinary validation errors pass through untouched.
func (c *Core) finish(ctx context.Context, span trace.Span, op string, entity any, err error) error {
	defer span.End()
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvariantViolation) {
		c.metrics.IncrementInvariantViolations()
		c.logger.ErrorContext(ctx, "ledger invariant violation",
			"severity", "fatal",
			"op", op,
			"entity", entity,
			"error", err,
		)
		err = domain.E(op, entity, domain.ErrInternal)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, domain.Code(err))
	return err
}

// emit publishes an event after its mutation committed. Delivery failures are
// logged and never undo the mutation.
func (c *Core) emit(ctx context.Context, ev domain.Event) {
	if c.publisher == nil {
		return
	}
	ev.ID = uuid.New()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = c.now()
	}
	if err := c.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		c.logger.WarnContext(ctx, "failed to publish event",
			"type", ev.Type,
			"question_id", ev.QuestionID,
			"error", err,
		)
	}
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
