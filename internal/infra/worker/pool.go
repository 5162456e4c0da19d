// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	ErrNilTask = errors.New("nil task")
	ErrStopped = errors.New("worker pool stopped")
)

const queueDepth = 4

// Task is one unit of work, typically the handling of a Telegram update.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines. Each worker owns
// its queue, so tasks submitted with the same key run one after the other in
// submission order.
type Pool struct {
	wg   sync.WaitGroup
	jobs []chan Task
	quit chan struct{}
	stop sync.Once
	next atomic.Uint64
	n    int
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	jobs := make([]chan Task, workers)
	for i := range jobs {
		jobs[i] = make(chan Task, queueDepth)
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{jobs: jobs, quit: make(chan struct{}), n: workers, log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int, jobs <-chan Task) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-jobs:
					p.run(ctx, id, task)
				}
			}
		}(i, p.jobs[i])
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker", id).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Error().Err(err).Int("worker", id).Msg("task error")
	}
}

// Stop signals workers to exit and waits for in-flight tasks. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.stop.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit queues an unordered task on the next worker, blocking while that
// worker's queue is full so updates are not lost.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	return p.enqueue(ctx, int((p.next.Add(1)-1)%uint64(p.n)), task)
}

// SubmitKeyed queues task on the worker owning key. Telegram updates use the
// chat id, which keeps every chat's updates in order.
func (p *Pool) SubmitKeyed(ctx context.Context, key int64, task Task) error {
	return p.enqueue(ctx, int(uint64(key)%uint64(p.n)), task)
}

func (p *Pool) enqueue(ctx context.Context, shard int, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.jobs[shard] <- task:
		return nil
	case <-p.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
