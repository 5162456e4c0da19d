// File: cmd/web/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"telegram-card-counter/internal/config"
	"telegram-card-counter/internal/infra/logging"
	"telegram-card-counter/internal/infra/metrics"
	"telegram-card-counter/internal/infra/store"
	"telegram-card-counter/internal/infra/web"
	"telegram-card-counter/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfgPath := fs.String("config", "config.yaml", "path to YAML config file")
	devMode := fs.Bool("dev", false, "human-readable logs, no sampling")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Error().Err(err).Msg("config")
		return err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	log := logger.With().Str("process", "web").Logger()

	if err := cfg.ValidateWeb(); err != nil {
		log.Error().Err(err).Msg("invalid web configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg, &log)
	if err != nil {
		log.Error().Err(err).Msg("store")
		return err
	}
	defer backend.Close()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, "web")

	srv := web.NewServer(
		usecase.NewStatusUseCase(backend.Status, &log),
		usecase.NewCountingUseCase(backend.Counters, &log),
		cfg.Web.APIKey,
		cfg.Web.WriteTimeout,
		&log,
	)
	if err := srv.Run(ctx, cfg.Addr()); err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr()).Msg("monitoring server failed")
		return err
	}
	log.Info().Msg("monitoring server stopped")
	return nil
}
