package repository

import (
	"context"

	"telegram-card-counter/internal/domain/model"
)

// CounterRepository stores per-chat tallies and the message numbers already
// counted. Add and MarkProcessed must be atomic for concurrent callers.
type CounterRepository interface {
	// Add merges delta into the chat's tally and returns the updated tally.
	Add(ctx context.Context, chatID int64, delta model.Counts) (model.Counts, error)
	Get(ctx context.Context, chatID int64) (model.Counts, error)
	// MarkProcessed records number for chatID. It returns false when the
	// number was already recorded.
	MarkProcessed(ctx context.Context, chatID int64, number string) (bool, error)
	// Reset zeroes the tally and forgets processed numbers for chatID only.
	Reset(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]model.ChatCounts, error)
}
