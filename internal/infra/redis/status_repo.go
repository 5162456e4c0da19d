package redis

import (
	"context"
	"encoding/json"
	"errors"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

const statusKey = "bot_status"

var _ repository.StatusRepository = (*StatusRepo)(nil)

type StatusRepo struct {
	cli *redis.Client
}

func NewStatusRepo(c *Client) *StatusRepo {
	return &StatusRepo{cli: c.cli}
}

func (r *StatusRepo) Save(ctx context.Context, st *model.BotStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.cli.Set(ctx, statusKey, data, 0).Err()
}

func (r *StatusRepo) Load(ctx context.Context) (*model.BotStatus, error) {
	data, err := r.cli.Get(ctx, statusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var st model.BotStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
