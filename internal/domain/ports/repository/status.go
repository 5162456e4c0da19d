package repository

import (
	"context"

	"telegram-card-counter/internal/domain/model"
)

type StatusRepository interface {
	Save(ctx context.Context, status *model.BotStatus) error
	// Load returns domain.ErrNotFound when nothing was saved yet.
	Load(ctx context.Context) (*model.BotStatus, error)
}
