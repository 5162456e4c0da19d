//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"
	"telegram-card-counter/internal/infra/i18n"
	"telegram-card-counter/internal/infra/store/memstore"
)

// =============================
// Repositories
// =============================

// ---- Mock CounterRepository ----

// MockCounterRepo is the in-memory store with injectable failures.
type MockCounterRepo struct {
	*memstore.CounterRepo

	AddErr  error
	MarkErr error
}

var _ repository.CounterRepository = (*MockCounterRepo)(nil)

func NewMockCounterRepo() *MockCounterRepo {
	return &MockCounterRepo{CounterRepo: memstore.NewCounterRepo()}
}

func (m *MockCounterRepo) Add(ctx context.Context, chatID int64, delta model.Counts) (model.Counts, error) {
	if m.AddErr != nil {
		return nil, m.AddErr
	}
	return m.CounterRepo.Add(ctx, chatID, delta)
}

func (m *MockCounterRepo) MarkProcessed(ctx context.Context, chatID int64, number string) (bool, error) {
	if m.MarkErr != nil {
		return false, m.MarkErr
	}
	return m.CounterRepo.MarkProcessed(ctx, chatID, number)
}

func (m *MockCounterRepo) processedCount(chatID int64) int { return m.ProcessedCount(chatID) }

// ---- Mock StatusRepository ----

type MockStatusRepo struct {
	mu      sync.Mutex
	saved   []*model.BotStatus
	SaveErr error
	LoadErr error
}

var _ repository.StatusRepository = (*MockStatusRepo)(nil)

func (m *MockStatusRepo) Save(ctx context.Context, st *model.BotStatus) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *st
	m.saved = append(m.saved, &cp)
	return nil
}

func (m *MockStatusRepo) Load(ctx context.Context) (*model.BotStatus, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	cp := *m.saved[len(m.saved)-1]
	return &cp, nil
}

var errBoom = errors.New("boom")

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	tr, err := i18n.Default("fr")
	if err != nil {
		panic(err)
	}
	return tr
}
