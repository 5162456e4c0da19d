package postgres

import (
	"context"
	"fmt"

	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.CounterRepository = (*PostgresCounterRepo)(nil)

type PostgresCounterRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCounterRepo(pool *pgxpool.Pool) *PostgresCounterRepo {
	return &PostgresCounterRepo{pool: pool}
}

func (r *PostgresCounterRepo) Add(ctx context.Context, chatID int64, delta model.Counts) (model.Counts, error) {
	const upsert = `
INSERT INTO chat_counts (chat_id, suit, count, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (chat_id, suit) DO UPDATE
  SET count      = chat_counts.count + EXCLUDED.count,
      updated_at = now();
`
	var out model.Counts
	err := withTx(ctx, r.pool, func(ctx context.Context, tx executor) error {
		// every suit gets a row so the chat is listed even with zero counts
		for _, s := range model.Suits {
			if _, err := tx.Exec(ctx, upsert, chatID, string(s), delta.Get(s)); err != nil {
				return err
			}
		}
		counts, err := getCounts(ctx, tx, chatID)
		out = counts
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Add counts: %w", err)
	}
	return out, nil
}

func (r *PostgresCounterRepo) Get(ctx context.Context, chatID int64) (model.Counts, error) {
	counts, err := getCounts(ctx, r.pool, chatID)
	if err != nil {
		return nil, fmt.Errorf("Get counts: %w", err)
	}
	return counts, nil
}

func getCounts(ctx context.Context, q executor, chatID int64) (model.Counts, error) {
	rows, err := q.Query(ctx, `SELECT suit, count FROM chat_counts WHERE chat_id = $1`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := model.Counts{}
	for rows.Next() {
		var suit string
		var n int
		if err := rows.Scan(&suit, &n); err != nil {
			return nil, err
		}
		if s := model.Suit(suit); s.Valid() {
			counts[s] = n
		}
	}
	return counts.Clone(), rows.Err()
}

func (r *PostgresCounterRepo) MarkProcessed(ctx context.Context, chatID int64, number string) (bool, error) {
	const sql = `
INSERT INTO processed_messages (chat_id, number)
VALUES ($1, $2)
ON CONFLICT (chat_id, number) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, sql, chatID, number)
	if err != nil {
		return false, fmt.Errorf("MarkProcessed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Reset zeroes the chat's rows instead of deleting them, so the chat stays listed.
func (r *PostgresCounterRepo) Reset(ctx context.Context, chatID int64) error {
	err := withTx(ctx, r.pool, func(ctx context.Context, tx executor) error {
		if _, err := tx.Exec(ctx, `UPDATE chat_counts SET count = 0, updated_at = now() WHERE chat_id = $1`, chatID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM processed_messages WHERE chat_id = $1`, chatID)
		return err
	})
	if err != nil {
		return fmt.Errorf("Reset chat %d: %w", chatID, err)
	}
	return nil
}

func (r *PostgresCounterRepo) ListChats(ctx context.Context) ([]model.ChatCounts, error) {
	rows, err := r.pool.Query(ctx, `SELECT chat_id, suit, count FROM chat_counts ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("ListChats: %w", err)
	}
	defer rows.Close()

	var out []model.ChatCounts
	for rows.Next() {
		var chatID int64
		var suit string
		var n int
		if err := rows.Scan(&chatID, &suit, &n); err != nil {
			return nil, fmt.Errorf("ListChats scan: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ChatID != chatID {
			out = append(out, model.ChatCounts{ChatID: chatID, Counts: model.Counts{}})
		}
		cur := &out[len(out)-1]
		if s := model.Suit(suit); s.Valid() {
			cur.Counts[s] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Counts = out[i].Counts.Clone()
		out[i].Total = out[i].Counts.Total()
	}
	return out, nil
}
