// Package filestore persists tallies, processed numbers and the bot status as
// JSON files. Every operation re-reads the files so a second process reading
// the same directory sees fresh data.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"
)

const (
	CountersFile  = "counters.json"
	ProcessedFile = "processed_messages.json"
	StatusFile    = "bot_status.json"
)

var (
	_ repository.CounterRepository = (*CounterStore)(nil)
	_ repository.StatusRepository  = (*StatusStore)(nil)
)

// Store owns the directory and the lock shared by both repositories.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Counters() *CounterStore { return &CounterStore{s: s} }
func (s *Store) Status() *StatusStore     { return &StatusStore{s: s} }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// readJSON leaves v untouched when the file does not exist.
func (s *Store) readJSON(name string, v any) error {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrReadStore, name, err)
	}
	return nil
}

// writeJSON replaces the file atomically.
func (s *Store) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}

// ---- counters ----

type countersDoc map[string]map[model.Suit]int

type CounterStore struct {
	s *Store
}

func chatKey(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func processedKey(chatID int64, number string) string {
	return fmt.Sprintf("%d_%s", chatID, number)
}

func (c *CounterStore) loadCounters() (countersDoc, error) {
	doc := countersDoc{}
	if err := c.s.readJSON(CountersFile, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *CounterStore) Add(ctx context.Context, chatID int64, delta model.Counts) (model.Counts, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	doc, err := c.loadCounters()
	if err != nil {
		return nil, err
	}
	cur := model.Counts(doc[chatKey(chatID)]).Clone()
	cur.Add(delta)
	doc[chatKey(chatID)] = cur
	if err := c.s.writeJSON(CountersFile, doc); err != nil {
		return nil, err
	}
	return cur.Clone(), nil
}

func (c *CounterStore) Get(ctx context.Context, chatID int64) (model.Counts, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	doc, err := c.loadCounters()
	if err != nil {
		return nil, err
	}
	return model.Counts(doc[chatKey(chatID)]).Clone(), nil
}

func (c *CounterStore) MarkProcessed(ctx context.Context, chatID int64, number string) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var keys []string
	if err := c.s.readJSON(ProcessedFile, &keys); err != nil {
		return false, err
	}
	key := processedKey(chatID, number)
	for _, k := range keys {
		if k == key {
			return false, nil
		}
	}
	keys = append(keys, key)
	sort.Strings(keys)
	if err := c.s.writeJSON(ProcessedFile, keys); err != nil {
		return false, err
	}
	return true, nil
}

// Reset keeps the chat listed with zero counts.
func (c *CounterStore) Reset(ctx context.Context, chatID int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	doc, err := c.loadCounters()
	if err != nil {
		return err
	}
	if _, ok := doc[chatKey(chatID)]; ok {
		doc[chatKey(chatID)] = model.Counts{}.Clone()
		if err := c.s.writeJSON(CountersFile, doc); err != nil {
			return err
		}
	}

	var keys []string
	if err := c.s.readJSON(ProcessedFile, &keys); err != nil {
		return err
	}
	prefix := chatKey(chatID) + "_"
	kept := keys[:0]
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			kept = append(kept, k)
		}
	}
	if len(kept) == len(keys) {
		return nil
	}
	return c.s.writeJSON(ProcessedFile, kept)
}

func (c *CounterStore) ListChats(ctx context.Context) ([]model.ChatCounts, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	doc, err := c.loadCounters()
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatCounts, 0, len(doc))
	for k, v := range doc {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		counts := model.Counts(v).Clone()
		out = append(out, model.ChatCounts{ChatID: id, Counts: counts, Total: counts.Total()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

// ---- status ----

type StatusStore struct {
	s *Store
}

func (st *StatusStore) Save(ctx context.Context, status *model.BotStatus) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	return st.s.writeJSON(StatusFile, status)
}

func (st *StatusStore) Load(ctx context.Context) (*model.BotStatus, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, err := os.Stat(st.s.path(StatusFile)); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	var status model.BotStatus
	if err := st.s.readJSON(StatusFile, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
