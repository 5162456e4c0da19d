// Package store opens the repositories selected by store.driver.
package store

import (
	"context"
	"fmt"

	"telegram-card-counter/internal/config"
	"telegram-card-counter/internal/domain/ports/repository"
	"telegram-card-counter/internal/infra/db/postgres"
	red "telegram-card-counter/internal/infra/redis"
	"telegram-card-counter/internal/infra/store/filestore"
	"telegram-card-counter/internal/infra/store/memstore"

	"github.com/rs/zerolog"
)

// Backend bundles the repositories of one process.
type Backend struct {
	Driver   string
	Counters repository.CounterRepository
	Status   repository.StatusRepository
	// Redis is set whenever a Redis URL is configured, even with another
	// driver, so the rate limiter and the report lock can use it.
	Redis *red.Client

	closers []func()
}

func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Backend, error) {
	b := &Backend{Driver: cfg.Store.Driver}

	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		switch {
		case err == nil:
			b.Redis = rc
			b.closers = append(b.closers, func() { _ = rc.Close() })
		case cfg.Store.Driver == config.StoreRedis:
			return nil, fmt.Errorf("connect redis: %w", err)
		default:
			logger.Warn().Err(err).Msg("redis unavailable, rate limiting and report locks disabled")
		}
	}

	switch cfg.Store.Driver {
	case config.StoreRedis:
		b.Counters = red.NewCounterRepo(b.Redis)
		b.Status = red.NewStatusRepo(b.Redis)

	case config.StorePostgres:
		pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			b.Close()
			return nil, err
		}
		b.Counters = postgres.NewPostgresCounterRepo(pool)
		b.Status = postgres.NewPostgresStatusRepo(pool)

	case config.StoreMemory:
		b.Counters = memstore.NewCounterRepo()
		b.Status = memstore.NewStatusRepo()

	default:
		fs, err := filestore.New(cfg.Store.Dir)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Counters = fs.Counters()
		b.Status = fs.Status()
	}

	logger.Info().Str("driver", b.Driver).Bool("redis", b.Redis != nil).Msg("store opened")
	return b, nil
}

// Close releases connections in reverse order.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
