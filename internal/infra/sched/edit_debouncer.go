package sched

import (
	"context"
	"sync"
	"time"

	"telegram-card-counter/internal/infra/metrics"

	"github.com/rs/zerolog"
)

type editKey struct {
	chatID    int64
	messageID int
}

type pendingEdit struct {
	gen   uint64
	timer *time.Timer
}

// EditDebouncer delays edited posts so only the last edit of a burst is handled.
type EditDebouncer struct {
	parent context.Context
	delay  time.Duration
	log    *zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	pending map[editKey]*pendingEdit
}

func NewEditDebouncer(parent context.Context, delay time.Duration, logger *zerolog.Logger) *EditDebouncer {
	l := logger.With().Str("component", "EditDebouncer").Logger()
	return &EditDebouncer{
		parent:  parent,
		delay:   delay,
		log:     &l,
		pending: make(map[editKey]*pendingEdit),
	}
}

// Submit schedules fn for the given message after the delay. A pending call
// for the same message is replaced.
func (d *EditDebouncer) Submit(chatID int64, messageID int, fn func(ctx context.Context)) {
	key := editKey{chatID: chatID, messageID: messageID}

	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.pending[key]; ok {
		old.timer.Stop()
		metrics.IncEdit("replaced")
	}
	d.gen++
	gen := d.gen
	d.pending[key] = &pendingEdit{
		gen:   gen,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, gen, fn) }),
	}
	metrics.IncEdit("scheduled")
}

func (d *EditDebouncer) fire(key editKey, gen uint64, fn func(ctx context.Context)) {
	d.mu.Lock()
	e, ok := d.pending[key]
	// a replaced timer may still fire if Stop lost the race
	if !ok || e.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	if d.parent.Err() != nil {
		return
	}
	metrics.IncEdit("processed")
	fn(d.parent)
}

// CancelChat drops every pending edit of a chat and returns how many were dropped.
func (d *EditDebouncer) CancelChat(chatID int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for k, e := range d.pending {
		if k.chatID != chatID {
			continue
		}
		e.timer.Stop()
		delete(d.pending, k)
		n++
	}
	for i := 0; i < n; i++ {
		metrics.IncEdit("cancelled")
	}
	return n
}

// StopAll drops every pending edit.
func (d *EditDebouncer) StopAll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.pending)
	for k, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, k)
	}
	if n > 0 {
		d.log.Info().Int("dropped", n).Msg("pending edits dropped")
	}
	return n
}

// Pending returns the number of edits waiting for their delay.
func (d *EditDebouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
