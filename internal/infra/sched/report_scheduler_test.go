//go:build !integration

package sched_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-card-counter/internal/infra/sched"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestReportScheduler_RunsPeriodically(t *testing.T) {
	s := sched.NewReportScheduler(context.Background(), nil, newTestLogger())
	defer s.StopAll()

	var runs int32
	s.Schedule(1, 20*time.Millisecond, func(ctx context.Context, chatID int64) error {
		if chatID != 1 {
			t.Errorf("unexpected chat %d", chatID)
		}
		atomic.AddInt32(&runs, 1)
		return nil
	})

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&runs) >= 2 })
	if d, ok := s.Interval(1); !ok || d != 20*time.Millisecond {
		t.Errorf("Interval = %v, %v", d, ok)
	}
}

func TestReportScheduler_ReplaceAndStop(t *testing.T) {
	s := sched.NewReportScheduler(context.Background(), nil, newTestLogger())
	defer s.StopAll()

	var first, second int32
	s.Schedule(1, 10*time.Millisecond, func(context.Context, int64) error {
		atomic.AddInt32(&first, 1)
		return nil
	})
	s.Schedule(1, 10*time.Millisecond, func(context.Context, int64) error {
		atomic.AddInt32(&second, 1)
		return nil
	})
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&second) >= 2 })

	before := atomic.LoadInt32(&first)
	time.Sleep(40 * time.Millisecond)
	if atomic.LoadInt32(&first) != before {
		t.Error("replaced cycle kept running")
	}

	if !s.Stop(1) {
		t.Fatal("expected Stop to report a running cycle")
	}
	if s.Stop(1) {
		t.Error("second Stop should report nothing running")
	}
	time.Sleep(20 * time.Millisecond)
	stopped := atomic.LoadInt32(&second)
	time.Sleep(40 * time.Millisecond)
	if atomic.LoadInt32(&second) != stopped {
		t.Error("stopped cycle kept running")
	}
}

func TestReportScheduler_StopAllWaits(t *testing.T) {
	s := sched.NewReportScheduler(context.Background(), nil, newTestLogger())
	var running int32
	for chat := int64(1); chat <= 3; chat++ {
		s.Schedule(chat, 5*time.Millisecond, func(ctx context.Context, _ int64) error {
			atomic.AddInt32(&running, 1)
			defer atomic.AddInt32(&running, -1)
			time.Sleep(10 * time.Millisecond)
			return nil
		})
	}
	time.Sleep(30 * time.Millisecond)
	s.StopAll()
	if n := atomic.LoadInt32(&running); n != 0 {
		t.Errorf("%d reports still running after StopAll", n)
	}
	if _, ok := s.Interval(1); ok {
		t.Error("expected no cycles after StopAll")
	}
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	unlocked []string
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return "", errors.New("held")
	}
	f.held[key] = true
	return "tok", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	f.unlocked = append(f.unlocked, key)
	return nil
}

func TestReportScheduler_LockSkipsAndReleasesOnFailure(t *testing.T) {
	t.Run("held lock skips the cycle", func(t *testing.T) {
		locker := &fakeLocker{held: map[string]bool{sched.ReportLockKey(1): true}}
		s := sched.NewReportScheduler(context.Background(), locker, newTestLogger())
		var runs int32
		s.Schedule(1, 5*time.Millisecond, func(context.Context, int64) error {
			atomic.AddInt32(&runs, 1)
			return nil
		})
		time.Sleep(40 * time.Millisecond)
		s.StopAll()
		if atomic.LoadInt32(&runs) != 0 {
			t.Error("report ran without the lock")
		}
	})

	t.Run("failed report releases the lock", func(t *testing.T) {
		locker := &fakeLocker{held: map[string]bool{}}
		s := sched.NewReportScheduler(context.Background(), locker, newTestLogger())
		var runs int32
		s.Schedule(2, 5*time.Millisecond, func(context.Context, int64) error {
			atomic.AddInt32(&runs, 1)
			return errors.New("send failed")
		})
		waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&runs) >= 2 })
		s.StopAll()

		locker.mu.Lock()
		defer locker.mu.Unlock()
		if len(locker.unlocked) == 0 || locker.unlocked[0] != sched.ReportLockKey(2) {
			t.Errorf("expected unlock of %s, got %v", sched.ReportLockKey(2), locker.unlocked)
		}
	})
}
