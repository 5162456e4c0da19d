//go:build !integration

package web_test

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type mockStatusUC struct {
	st  *model.BotStatus
	err error
}

var _ usecase.StatusUseCase = (*mockStatusUC)(nil)

func (m *mockStatusUC) Record(context.Context, bool, string, error) error { return nil }

func (m *mockStatusUC) Current(context.Context) (*model.BotStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.st == nil {
		return &model.BotStatus{}, nil
	}
	cp := *m.st
	return &cp, nil
}

type mockCountingUC struct {
	chats []model.ChatCounts
	err   error
}

var _ usecase.CountingUseCase = (*mockCountingUC)(nil)

func (m *mockCountingUC) ProcessMessage(context.Context, int64, string) (*usecase.CountResult, error) {
	return &usecase.CountResult{}, nil
}

func (m *mockCountingUC) Snapshot(context.Context, int64) (model.Counts, error) {
	return model.Counts{}, nil
}

func (m *mockCountingUC) Reset(context.Context, int64) error { return nil }

func (m *mockCountingUC) ListChats(context.Context) ([]model.ChatCounts, error) {
	return m.chats, m.err
}
