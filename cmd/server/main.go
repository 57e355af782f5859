package main

import (
	"context"
	"errors"
	"flag"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/civicstake/internal/adapters/handler/http"
	"github.com/vncsmyrnk/civicstake/internal/app"
	"github.com/vncsmyrnk/civicstake/internal/platform/config"
	"github.com/vncsmyrnk/civicstake/internal/platform/logger"
	"github.com/vncsmyrnk/civicstake/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var embeddedSweeper bool
	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flag.BoolVar(&embeddedSweeper, "sweep", cfg.Store == "memory", "Run the deadline sweeper inside the server")
	flag.Parse()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	logr := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		log.Fatal(err)
	}
	defer application.Close()

	if embeddedSweeper {
		sweeper := worker.NewSweeper(application.Sweeps, application.Payouts, cfg.Engine.SweepInterval, logr)
		go sweeper.Run(ctx)
	}

	handler := http.NewHandler(application.Services, http.NewTokenVerifier(cfg.JWTSecret), application.Registry, logr)
	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: handler}

	go func() {
		logr.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logr.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
