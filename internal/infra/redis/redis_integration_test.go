//go:build integration

package redis_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"telegram-card-counter/internal/config"
	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/model"
	red "telegram-card-counter/internal/infra/redis"
)

func newClient(t *testing.T) *red.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := red.NewClient(ctx, &config.RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCounterRepo(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	repo := red.NewCounterRepo(c)
	chat := time.Now().UnixNano()
	t.Cleanup(func() { _ = repo.Reset(ctx, chat) })

	got, err := repo.Add(ctx, chat, model.Counts{model.Hearts: 2, model.Spades: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got.Get(model.Hearts) != 2 || got.Get(model.Spades) != 1 {
		t.Errorf("unexpected counts %v", got)
	}

	fresh, err := repo.MarkProcessed(ctx, chat, "12")
	if err != nil || !fresh {
		t.Fatalf("first mark = %v, %v", fresh, err)
	}
	fresh, _ = repo.MarkProcessed(ctx, chat, "12")
	if fresh {
		t.Error("second mark should report duplicate")
	}

	if err := repo.Reset(ctx, chat); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Get(ctx, chat)
	if got.Total() != 0 {
		t.Errorf("expected empty tally after reset, got %v", got)
	}
	if fresh, _ := repo.MarkProcessed(ctx, chat, "12"); !fresh {
		t.Error("number should be fresh after reset")
	}

	chats, err := repo.ListChats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, cc := range chats {
		if cc.ChatID == chat {
			found = true
		}
	}
	if !found {
		t.Error("reset chat should stay listed")
	}
}

func TestCounterRepo_ConcurrentAddsSeeTheirOwnTotal(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	repo := red.NewCounterRepo(c)
	chat := time.Now().UnixNano()
	t.Cleanup(func() { _ = repo.Reset(ctx, chat) })

	const n = 30
	totals := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.Add(ctx, chat, model.Counts{model.Clubs: 1})
			if err != nil {
				t.Error(err)
				return
			}
			totals <- got.Get(model.Clubs)
		}()
	}
	wg.Wait()
	close(totals)

	seen := map[int]bool{}
	for v := range totals {
		if seen[v] {
			t.Fatalf("two adds returned the same total %d", v)
		}
		seen[v] = true
	}
	for v := 1; v <= n; v++ {
		if !seen[v] {
			t.Errorf("no add returned total %d", v)
		}
	}
}

func TestStatusRepoAndLocker(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	status := red.NewStatusRepo(c)
	if err := status.Save(ctx, &model.BotStatus{Running: true, LastMessage: "ok"}); err != nil {
		t.Fatal(err)
	}
	st, err := status.Load(ctx)
	if err != nil || !st.Running || st.LastMessage != "ok" {
		t.Errorf("Load = %+v, %v", st, err)
	}

	locker := red.NewLocker(c)
	key := "test_lock:" + time.Now().Format(time.RFC3339Nano)
	tok, err := locker.TryLock(ctx, key, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := locker.TryLock(ctx, key, time.Second); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("expected ErrLockHeld, got %v", err)
	}
	if err := locker.Unlock(ctx, key, tok); err != nil {
		t.Fatal(err)
	}

	limiter := red.NewRateLimiter(c)
	rk := "test_rl:" + key
	for i := 0; i < 2; i++ {
		if ok, err := limiter.Allow(ctx, rk, 2, time.Second); err != nil || !ok {
			t.Fatalf("call %d should pass: %v %v", i, ok, err)
		}
	}
	if ok, _ := limiter.Allow(ctx, rk, 2, time.Second); ok {
		t.Error("third call should be limited")
	}
}
