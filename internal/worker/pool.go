// Package worker runs background jobs on a fixed number of goroutines fed by a bounded queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"trustnet/internal/logging"
)

var (
	ErrQueueFull = errors.New("worker: queue full")
	ErrStopped   = errors.New("worker: pool stopped")
)

// Job is a unit of background work. Its error is logged, not propagated.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Pool struct {
	workers int
	jobs    chan Job
	log     *logging.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	group   errgroup.Group
}

// New returns a pool with the given number of workers and queue capacity.
// Non-positive values fall back to 1 worker and a queue of 1.
func New(workers, queueSize int, log *logging.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, queueSize),
		log:     log.With("worker"),
	}
}

// Start launches the workers. Jobs run with ctx; Start is a no-op after the first call.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			for job := range p.jobs {
				p.run(ctx, job)
			}
			return nil
		})
	}
	p.log.Info("worker_pool_started", logging.Fields{"workers": p.workers, "queue_size": cap(p.jobs)})
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) Workers() int { return p.workers }

// Pending reports the number of queued jobs not yet picked up by a worker.
func (p *Pool) Pending() int {
	return len(p.jobs)
}

// Stop rejects new jobs, lets the workers drain the queue and waits for them.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	_ = p.group.Wait()
	p.log.Info("worker_pool_stopped", nil)
}

func (p *Pool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker_job_panic", fmt.Errorf("%v", r), logging.Fields{"job": job.Name})
		}
	}()
	if err := job.Run(ctx); err != nil {
		p.log.Error("worker_job_failed", err, logging.Fields{"job": job.Name})
	}
}
