package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

const chatsKey = "chats"

func countsKey(chatID int64) string    { return fmt.Sprintf("counts:%d", chatID) }
func processedKey(chatID int64) string { return fmt.Sprintf("processed:%d", chatID) }

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo keeps one hash of suit tallies and one set of processed
// numbers per chat.
type CounterRepo struct {
	cli *redis.Client
}

func NewCounterRepo(c *Client) *CounterRepo {
	return &CounterRepo{cli: c.cli}
}

// Add reads the tally in the same MULTI as the increments, so the result is
// never mixed with a concurrent Add or Reset.
func (r *CounterRepo) Add(ctx context.Context, chatID int64, delta model.Counts) (model.Counts, error) {
	key := countsKey(chatID)
	var all *redis.StringStringMapCmd
	_, err := r.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, chatsKey, chatID)
		for s, n := range delta {
			if n != 0 {
				p.HIncrBy(ctx, key, string(s), int64(n))
			}
		}
		all = p.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseCounts(all.Val()), nil
}

func (r *CounterRepo) Get(ctx context.Context, chatID int64) (model.Counts, error) {
	vals, err := r.cli.HGetAll(ctx, countsKey(chatID)).Result()
	if err != nil {
		return nil, err
	}
	return parseCounts(vals), nil
}

func (r *CounterRepo) MarkProcessed(ctx context.Context, chatID int64, number string) (bool, error) {
	added, err := r.cli.SAdd(ctx, processedKey(chatID), number).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

// Reset keeps the chat listed with an empty tally.
func (r *CounterRepo) Reset(ctx context.Context, chatID int64) error {
	_, err := r.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, countsKey(chatID), processedKey(chatID))
		return nil
	})
	return err
}

func (r *CounterRepo) ListChats(ctx context.Context) ([]model.ChatCounts, error) {
	ids, err := r.cli.SMembers(ctx, chatsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatCounts, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counts, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, model.ChatCounts{ChatID: id, Counts: counts, Total: counts.Total()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func parseCounts(vals map[string]string) model.Counts {
	counts := model.Counts{}
	for k, v := range vals {
		s := model.Suit(k)
		if !s.Valid() {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		counts[s] = n
	}
	return counts.Clone()
}
