package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/rate_ingestor/internal/metrics"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
)

// ErrDispatcherClosed is returned once Close has been called.
var ErrDispatcherClosed = errors.New("dispatcher closed")

type task struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget tasks on a fixed worker pool fed by a bounded queue.
// When the queue is full the oldest pending task is dropped to make room.
type Dispatcher struct {
	queue   chan task
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	closed  bool
	dropped int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines serving a queue of queueSize tasks.
// Tasks run with a context carrying logger.
func NewDispatcher(queueSize, workers int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:   make(chan task, queueSize),
		workers: workers,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Submit enqueues a task without blocking. It returns false only after Close.
func (d *Dispatcher) Submit(name string, run func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	t := task{name: name, run: run}
	for {
		select {
		case d.queue <- t:
			metrics.SetQueueDepth(len(d.queue))
			return true
		default:
		}
		// Full: evict the oldest pending task. A worker may have taken it already,
		// in which case the next send succeeds.
		select {
		case old := <-d.queue:
			d.dropped++
			metrics.RecordTask(old.name, "dropped")
			d.logger.Warn("Dispatcher queue full, dropping oldest task",
				slog.String("dropped_task", old.name),
				slog.Int64("dropped_total", d.dropped))
		default:
		}
	}
}

// Dropped returns the number of tasks evicted so far.
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close stops accepting tasks and lets workers drain the queue until ctx is done.
// Tasks still pending when ctx expires are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return fmt.Errorf("dispatcher drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.queue {
		if d.ctx.Err() != nil {
			continue
		}
		metrics.SetQueueDepth(len(d.queue))
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordTask(t.name, "failed")
			d.logger.Error("Dispatched task panicked", slog.String("task", t.name), slog.Any("panic", r))
		}
	}()

	if err := t.run(middleware.WithLogger(d.ctx, d.logger)); err != nil {
		metrics.RecordTask(t.name, "failed")
		d.logger.Warn("Dispatched task failed", slog.String("task", t.name), slog.String("error", err.Error()))
		return
	}
	metrics.RecordTask(t.name, "ok")
}
