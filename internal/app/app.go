// Package app wires adapters and services from configuration. Both binaries
// build on it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vncsmyrnk/civicstake/internal/adapters/charity"
	"github.com/vncsmyrnk/civicstake/internal/adapters/events"
	handler "github.com/vncsmyrnk/civicstake/internal/adapters/handler/http"
	"github.com/vncsmyrnk/civicstake/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/civicstake/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/civicstake/internal/adapters/scorer"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
	"github.com/vncsmyrnk/civicstake/internal/core/services"
	"github.com/vncsmyrnk/civicstake/internal/platform/config"
	"github.com/vncsmyrnk/civicstake/internal/platform/metrics"
)

type App struct {
	Services handler.Services
	Sweeps   ports.SweepService
	Payouts  ports.PayoutService
	Registry *prometheus.Registry

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := a.store(cfg)
	if err != nil {
		return nil, err
	}
	publisher, err := a.publisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMetrics(metrics.New(a.Registry)),
		services.WithPublisher(publisher),
	}
	if cfg.Scorer.APIKey != "" {
		client := &http.Client{Timeout: cfg.Scorer.Timeout}
		opts = append(opts, services.WithScorer(scorer.NewGemini(cfg.Scorer.URL, cfg.Scorer.APIKey, cfg.Scorer.Model, client)))
	}
	core := services.NewCore(store, EngineConfig(cfg), opts...)
	a.closers = append(a.closers, func() error {
		core.WaitForScoring()
		return nil
	})

	var sink ports.CharitySink = charity.NewLogSink(logger)
	if cfg.CharityWebhook != "" {
		sink = charity.NewWebhookSink(cfg.CharityWebhook, &http.Client{Timeout: cfg.Scorer.Timeout})
	}

	a.Services = handler.Services{
		Users:       services.NewUserService(core),
		Ledger:      services.NewLedgerService(core),
		Bounties:    services.NewBountyService(core),
		Questions:   services.NewQuestionService(core),
		Votes:       services.NewVoteService(core),
		Leaderboard: services.NewLeaderboardService(core),
		Moderation:  services.NewModerationService(core),
	}
	a.Sweeps = services.NewSweepService(core)
	a.Payouts = services.NewPayoutService(core, sink)
	return a, nil
}

// EngineConfig maps the environment settings onto the engine's tunables.
func EngineConfig(cfg config.Config) services.Config {
	rating := domain.DefaultRatingParams()
	rating.Mu0 = cfg.Engine.Rating.Mu0
	rating.Sigma0 = cfg.Engine.Rating.Sigma0
	rating.Beta = cfg.Engine.Rating.Beta
	rating.SigmaMin = cfg.Engine.Rating.SigmaMin
	rating.ReferenceMu = cfg.Engine.Rating.ReferenceMu

	return services.Config{
		PurchaseCap:      cfg.Engine.PurchaseCap,
		QuestionTTL:      cfg.Engine.QuestionTTL,
		VotingWindow:     cfg.Engine.VotingWindow,
		VoteQuorum:       cfg.Engine.VoteQuorum,
		SweepConcurrency: cfg.Engine.SweepConcurrency,
		PayoutBatchSize:  cfg.Engine.PayoutBatchSize,
		ScorerTimeout:    cfg.Scorer.Timeout,
		Rating:           rating,
	}
}

func (a *App) store(cfg config.Config) (ports.Store, error) {
	if cfg.Store == "memory" {
		return memory.NewStore(), nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return postgres.NewStore(db), nil
}

func (a *App) publisher(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.EventPublisher, error) {
	switch cfg.Events.Backend {
	case "redis":
		p, err := events.NewRedisPublisher(ctx, cfg.Events.RedisURL, cfg.Events.RedisChannel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		return p, nil
	case "kafka":
		p, err := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			p.Close()
			return nil
		})
		return p, nil
	default:
		return events.NewLogPublisher(logger), nil
	}
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
