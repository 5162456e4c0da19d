// Package memstore keeps tallies and the bot status in process memory. It
// backs store.driver=memory, which suits a single bot process without a
// dashboard, and the unit tests of the layers above the store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"
)

var (
	_ repository.CounterRepository = (*CounterRepo)(nil)
	_ repository.StatusRepository  = (*StatusRepo)(nil)
)

type CounterRepo struct {
	mu        sync.Mutex
	counts    map[int64]model.Counts
	processed map[int64]map[string]struct{}
}

func NewCounterRepo() *CounterRepo {
	return &CounterRepo{
		counts:    map[int64]model.Counts{},
		processed: map[int64]map[string]struct{}{},
	}
}

func (m *CounterRepo) Add(_ context.Context, chatID int64, delta model.Counts) (model.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[chatID] == nil {
		m.counts[chatID] = model.Counts{}
	}
	return m.counts[chatID].Add(delta).Clone(), nil
}

func (m *CounterRepo) Get(_ context.Context, chatID int64) (model.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[chatID].Clone(), nil
}

func (m *CounterRepo) MarkProcessed(_ context.Context, chatID int64, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := m.processed[chatID]
	if seen == nil {
		seen = map[string]struct{}{}
		m.processed[chatID] = seen
	}
	if _, ok := seen[number]; ok {
		return false, nil
	}
	seen[number] = struct{}{}
	return true, nil
}

// Reset keeps the chat listed with an empty tally.
func (m *CounterRepo) Reset(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.counts[chatID]; ok {
		m.counts[chatID] = model.Counts{}
	}
	delete(m.processed, chatID)
	return nil
}

func (m *CounterRepo) ListChats(context.Context) ([]model.ChatCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ChatCounts, 0, len(m.counts))
	for id, c := range m.counts {
		out = append(out, model.ChatCounts{ChatID: id, Counts: c.Clone(), Total: c.Total()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

// ProcessedCount is the number of message numbers remembered for chatID.
func (m *CounterRepo) ProcessedCount(chatID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.processed[chatID])
}

type StatusRepo struct {
	mu     sync.Mutex
	status *model.BotStatus
}

func NewStatusRepo() *StatusRepo { return &StatusRepo{} }

func (s *StatusRepo) Save(_ context.Context, st *model.BotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.status = &cp
	return nil
}

func (s *StatusRepo) Load(context.Context) (*model.BotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return nil, domain.ErrNotFound
	}
	cp := *s.status
	return &cp, nil
}
