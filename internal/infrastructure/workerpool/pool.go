package workerpool

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrStopped is returned by Do once the pool has been stopped.
var ErrStopped = errors.New("worker pool stopped")

type job struct {
	fn   func()
	done chan struct{}
}

// Pool runs CPU-bound jobs on a fixed set of goroutines so that bursts of
// password hashing cannot occupy every core.
type Pool struct {
	jobs    chan job
	log     zerolog.Logger
	workers int

	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup
}

// New creates a Pool with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func New(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		log:     log,
		workers: numWorkers,
		stopped: make(chan struct{}),
	}
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled or
// Stop is called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	p.log.Debug().Int("workers", p.workers).Msg("worker pool started")
}

// Stop signals all workers to exit and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopped) })
	p.wg.Wait()
}

// Do queues fn and blocks until it has run or ctx is done. When ctx ends
// first, fn may still run later; its results must not be read by the caller.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrStopped
	case p.jobs <- j:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrStopped
	case <-j.done:
		return nil
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopped:
			return
		case j := <-p.jobs:
			p.run(id, j)
		}
	}
}

func (p *Pool) run(id int, j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("job panicked")
		}
	}()
	j.fn()
}
