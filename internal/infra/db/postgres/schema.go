package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_counts (
    chat_id    BIGINT      NOT NULL,
    suit       TEXT        NOT NULL,
    count      INTEGER     NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (chat_id, suit)
);

CREATE TABLE IF NOT EXISTS processed_messages (
    chat_id    BIGINT      NOT NULL,
    number     TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (chat_id, number)
);

CREATE TABLE IF NOT EXISTS bot_status (
    id           SMALLINT    PRIMARY KEY,
    running      BOOLEAN     NOT NULL,
    last_message TEXT        NOT NULL DEFAULT '',
    error        TEXT        NOT NULL DEFAULT '',
    updated_at   TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables on first start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
