// File: cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-card-counter/internal/application"
	"telegram-card-counter/internal/config"
	tele "telegram-card-counter/internal/infra/adapters/telegram"
	"telegram-card-counter/internal/infra/i18n"
	"telegram-card-counter/internal/infra/logging"
	"telegram-card-counter/internal/infra/metrics"
	red "telegram-card-counter/internal/infra/redis"
	"telegram-card-counter/internal/infra/sched"
	"telegram-card-counter/internal/infra/store"
	"telegram-card-counter/internal/infra/web"
	"telegram-card-counter/internal/infra/worker"
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
	// ---- CLI flags ----
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
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
	log := logger.With().Str("process", "bot").Logger()

	// a missing token is fatal before any network call
	if err := cfg.ValidateBot(); err != nil {
		log.Error().Err(err).Msg("invalid bot configuration")
		recordFailure(cfg, &log, err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Store ----
	backend, err := store.Open(ctx, cfg, &log)
	if err != nil {
		log.Error().Err(err).Msg("store")
		return err
	}
	defer backend.Close()
	statusUC := usecase.NewStatusUseCase(backend.Status, &log)
	_ = statusUC.Record(ctx, true, "Démarrage...", nil)

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, "bot")

	tr, err := i18n.Default(cfg.Bot.Language)
	if err != nil {
		log.Error().Err(err).Str("language", cfg.Bot.Language).Msg("i18n")
		return err
	}

	// ---- Telegram client (fails fast on a bad token) ----
	client, err := tele.NewBotClient(cfg.Bot.Token, &log)
	if err != nil {
		_ = statusUC.Record(context.Background(), false, "", err)
		log.Error().Err(err).Str("token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).Msg("telegram authentication failed")
		return err
	}

	// ---- Schedulers ----
	var locker sched.Locker
	var limiter tele.RateLimiter
	if backend.Redis != nil {
		locker = red.NewLocker(backend.Redis)
		limiter = red.NewRateLimiter(backend.Redis)
	}
	reports := sched.NewReportScheduler(ctx, locker, &log)
	edits := sched.NewEditDebouncer(ctx, cfg.Bot.EditDelay, &log)

	// ---- Use cases + facade ----
	countingUC := usecase.NewCountingUseCase(backend.Counters, &log)
	deployUC := usecase.NewDeployUseCase(cfg.Deploy.Root, cfg.Deploy.Paths, &log)
	facade := application.NewBotFacade(
		countingUC, statusUC, deployUC, reports, edits, client, tr,
		application.Options{
			DisplayStyle: cfg.Bot.DisplayStyle,
			MinMinutes:   cfg.Report.MinMinutes,
			MaxMinutes:   cfg.Report.MaxMinutes,
			Location:     cfg.ReportLocation(),
		},
		&log,
	)

	pool := worker.NewPool(cfg.Bot.Workers, &log)
	botAdapter, err := tele.NewRealTelegramBotAdapter(client, facade, edits, pool, limiter, cfg.Bot.RateLimit, &log)
	if err != nil {
		log.Error().Err(err).Msg("telegram adapter")
		return err
	}
	if err := client.SetCommands(ctx, facade.CommandDescriptions()); err != nil {
		log.Warn().Err(err).Msg("failed to publish command menu")
	}

	g, gctx := errgroup.WithContext(ctx)
	pool.Start(gctx)

	g.Go(func() error {
		err := botAdapter.StartPolling(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.Bot.MetricsPort > 0 {
		g.Go(func() error {
			return web.ListenAndServe(gctx, fmt.Sprintf(":%d", cfg.Bot.MetricsPort), promhttp.Handler(), 10*time.Second, &log)
		})
	}

	_ = statusUC.Record(ctx, true, "Bot en ligne", nil)
	log.Info().Str("version", version).Msg("bot ready")

	err = g.Wait()

	// ---- Graceful shutdown ----
	reports.StopAll()
	edits.StopAll()
	pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err != nil {
		_ = statusUC.Record(shutdownCtx, false, "Arrêté", err)
		log.Error().Err(err).Msg("bot stopped with error")
		return err
	}
	_ = statusUC.Record(shutdownCtx, false, "Arrêté", nil)
	log.Info().Msg("bot stopped")
	return nil
}

// recordFailure saves a stopped status so the dashboard shows why the bot
// did not start. The store is opened only for that write.
func recordFailure(cfg *config.Config, log *zerolog.Logger, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("failure not recorded")
		return
	}
	defer backend.Close()
	_ = usecase.NewStatusUseCase(backend.Status, log).Record(ctx, false, "", cause)
}
