package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/civicstake/internal/app"
	"github.com/vncsmyrnk/civicstake/internal/platform/config"
	"github.com/vncsmyrnk/civicstake/internal/platform/logger"
	"github.com/vncsmyrnk/civicstake/internal/worker"
)

// The sweeper runs one pass by default so it can be scheduled as a cron job.
// With -loop it keeps sweeping every SWEEP_INTERVAL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var loop bool
	flag.StringVar(&cfg.Postgres.Host, "db-host", cfg.Postgres.Host, "Database host")
	flag.StringVar(&cfg.Postgres.Port, "db-port", cfg.Postgres.Port, "Database port")
	flag.StringVar(&cfg.Postgres.User, "db-user", cfg.Postgres.User, "Database user")
	flag.StringVar(&cfg.Postgres.Password, "db-pass", cfg.Postgres.Password, "Database password")
	flag.StringVar(&cfg.Postgres.DB, "db-name", cfg.Postgres.DB, "Database name")
	flag.BoolVar(&loop, "loop", false, "Keep sweeping every SWEEP_INTERVAL")
	flag.Parse()

	if cfg.Store != "postgres" {
		log.Fatal("the sweeper needs STORE=postgres; the in-memory store lives inside the server")
	}

	logr := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		log.Fatal(err)
	}
	defer application.Close()

	sweeper := worker.NewSweeper(application.Sweeps, application.Payouts, cfg.Engine.SweepInterval, logr)
	if loop {
		sweeper.Run(ctx)
		return
	}

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	logr.Info("Starting sweep job...")
	if err := sweeper.RunOnce(jobCtx); err != nil {
		application.Close()
		log.Fatalf("Error running sweep: %v", err)
	}
	logr.Info("Sweep completed successfully.")
}
