package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrOverloaded is returned when a pool's queue is full. Callers should
// retry later with backoff instead of queueing unboundedly.
var ErrOverloaded = errors.New("scheduler overloaded")

// PoolConfig bounds a worker pool.
type PoolConfig struct {
	Workers    int
	QueueDepth int
}

// Validate checks pool bounds.
func (c PoolConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("pool workers must be positive, got %d", c.Workers)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("pool queue depth must be non-negative, got %d", c.QueueDepth)
	}
	return nil
}

type task struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool is a fixed-size worker pool with a bounded submission queue.
// A full queue rejects new work immediately with ErrOverloaded.
type Pool struct {
	name  string
	tasks chan task
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool with the given bounds.
func NewPool(name string, cfg PoolConfig) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pool %q: %w", name, err)
	}

	p := &Pool{
		name:  name,
		tasks: make(chan task, cfg.QueueDepth),
	}
	for range cfg.Workers {
		p.wg.Add(1)
		go p.worker()
	}
	slog.Debug("Worker pool started", "pool", name, "workers", cfg.Workers, "queue", cfg.QueueDepth)
	return p, nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		// done is buffered: an abandoned waiter never blocks the worker.
		t.done <- t.fn(t.ctx)
	}
}

// Run submits fn and waits for it to finish. If the queue is full it fails
// fast with ErrOverloaded. A caller whose ctx expires stops waiting, but a
// task already queued or running is never cancelled; its result simply goes
// unobserved.
func (p *Pool) Run(ctx context.Context, fn func(context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("pool %q is closed", p.name)
	}
	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case p.tasks <- t:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		return fmt.Errorf("%w: pool %q queue full", ErrOverloaded, p.name)
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for running tasks to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	slog.Debug("Worker pool stopped", "pool", p.name)
}
