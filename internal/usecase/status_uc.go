package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ StatusUseCase = (*statusUC)(nil)

// StatusUseCase publishes the bot's health for the dashboard.
type StatusUseCase interface {
	Record(ctx context.Context, running bool, message string, cause error) error
	Current(ctx context.Context) (*model.BotStatus, error)
}

type statusUC struct {
	repo repository.StatusRepository
	now  func() time.Time
	log  *zerolog.Logger
}

func NewStatusUseCase(repo repository.StatusRepository, logger *zerolog.Logger) *statusUC {
	return &statusUC{repo: repo, now: time.Now, log: logger}
}

func (s *statusUC) Record(ctx context.Context, running bool, message string, cause error) error {
	st := &model.BotStatus{
		Running:     running,
		LastMessage: message,
		UpdatedAt:   s.now().UTC(),
	}
	if cause != nil {
		st.Error = cause.Error()
	}
	if err := s.repo.Save(ctx, st); err != nil {
		// status is best effort; callers usually just log this
		s.log.Warn().Err(err).Str("message", message).Msg("failed to save bot status")
		return err
	}
	return nil
}

// Current returns the last saved status, or a stopped status when the bot
// never reported.
func (s *statusUC) Current(ctx context.Context) (*model.BotStatus, error) {
	st, err := s.repo.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return &model.BotStatus{Running: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}
