package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telegram-card-counter/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Locker guards a report against concurrent sends from several replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type reportEntry struct {
	every  time.Duration
	cancel context.CancelFunc
}

// ReportScheduler runs one periodic report per chat, each on its own ticker.
type ReportScheduler struct {
	parent  context.Context
	locker  Locker // optional
	timeout time.Duration
	log     *zerolog.Logger

	mu   sync.Mutex
	jobs map[int64]*reportEntry
	wg   sync.WaitGroup
}

// NewReportScheduler binds every report loop to parent. locker may be nil.
func NewReportScheduler(parent context.Context, locker Locker, logger *zerolog.Logger) *ReportScheduler {
	l := logger.With().Str("component", "ReportScheduler").Logger()
	return &ReportScheduler{
		parent:  parent,
		locker:  locker,
		timeout: 30 * time.Second,
		log:     &l,
		jobs:    make(map[int64]*reportEntry),
	}
}

// Schedule runs job every interval for chatID, replacing any previous cycle.
// The first run happens one interval from now.
func (s *ReportScheduler) Schedule(chatID int64, every time.Duration, job func(ctx context.Context, chatID int64) error) {
	if every <= 0 || job == nil {
		return
	}
	ctx, cancel := context.WithCancel(s.parent)

	s.mu.Lock()
	if old, ok := s.jobs[chatID]; ok {
		old.cancel()
	}
	s.jobs[chatID] = &reportEntry{every: every, cancel: cancel}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(ctx, chatID, every, job)
	s.log.Info().Int64("chat_id", chatID).Dur("every", every).Msg("report scheduled")
}

// Stop cancels the chat's cycle. It reports whether one was running.
func (s *ReportScheduler) Stop(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[chatID]
	if !ok {
		return false
	}
	e.cancel()
	delete(s.jobs, chatID)
	s.log.Info().Int64("chat_id", chatID).Msg("report stopped")
	return true
}

// StopAll cancels every cycle and waits for running reports to return.
func (s *ReportScheduler) StopAll() {
	s.mu.Lock()
	for id, e := range s.jobs {
		e.cancel()
		delete(s.jobs, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Interval returns the configured interval of a chat.
func (s *ReportScheduler) Interval(chatID int64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[chatID]
	if !ok {
		return 0, false
	}
	return e.every, true
}

func (s *ReportScheduler) loop(ctx context.Context, chatID int64, every time.Duration, job func(context.Context, int64) error) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, chatID, every, job)
		}
	}
}

func (s *ReportScheduler) fire(ctx context.Context, chatID int64, every time.Duration, job func(context.Context, int64) error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var key, token string
	if s.locker != nil {
		key = ReportLockKey(chatID)
		// held for most of the interval so a second replica skips this cycle
		t, err := s.locker.TryLock(runCtx, key, every*9/10)
		if err != nil {
			metrics.IncReport("skipped")
			s.log.Debug().Err(err).Int64("chat_id", chatID).Msg("report lock not acquired")
			return
		}
		token = t
	}

	if err := job(runCtx, chatID); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("automatic report failed")
		if s.locker != nil {
			if uerr := s.locker.Unlock(context.Background(), key, token); uerr != nil {
				s.log.Warn().Err(uerr).Str("key", key).Msg("report unlock failed")
			}
		}
	}
}

func ReportLockKey(chatID int64) string {
	return fmt.Sprintf("report_lock:%d", chatID)
}
