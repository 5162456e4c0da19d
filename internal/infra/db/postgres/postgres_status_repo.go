package postgres

import (
	"context"
	"errors"
	"fmt"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.StatusRepository = (*PostgresStatusRepo)(nil)

// PostgresStatusRepo keeps a single row with id 1.
type PostgresStatusRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStatusRepo(pool *pgxpool.Pool) *PostgresStatusRepo {
	return &PostgresStatusRepo{pool: pool}
}

func (r *PostgresStatusRepo) Save(ctx context.Context, st *model.BotStatus) error {
	const sql = `
INSERT INTO bot_status (id, running, last_message, error, updated_at)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
  SET running      = EXCLUDED.running,
      last_message = EXCLUDED.last_message,
      error        = EXCLUDED.error,
      updated_at   = EXCLUDED.updated_at;
`
	if _, err := r.pool.Exec(ctx, sql, st.Running, st.LastMessage, st.Error, st.UpdatedAt); err != nil {
		return fmt.Errorf("Save status: %w", err)
	}
	return nil
}

func (r *PostgresStatusRepo) Load(ctx context.Context) (*model.BotStatus, error) {
	const sql = `SELECT running, last_message, error, updated_at FROM bot_status WHERE id = 1`
	var st model.BotStatus
	err := r.pool.QueryRow(ctx, sql).Scan(&st.Running, &st.LastMessage, &st.Error, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Load status: %w", err)
	}
	return &st, nil
}
