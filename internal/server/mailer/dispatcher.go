package mailer

import (
	"context"
	"log/slog"
	"sync"
)

// Submitter schedules a task for background execution. Submit returns
// immediately; the task's error is logged and discarded, never propagated
// to the submitting caller.
type Submitter interface {
	Submit(name string, task func(ctx context.Context) error)
}

// Dispatcher runs submitted tasks on a single background goroutine.
// Close drains the queue, so a graceful shutdown still delivers
// notifications that were already accepted.
type Dispatcher struct {
	tasks  chan queued
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

type queued struct {
	name string
	task func(ctx context.Context) error
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		tasks:  make(chan queued, 64),
		logger: logger,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for q := range d.tasks {
		// Background tasks get their own context: the request that
		// spawned them has typically finished already.
		if err := q.task(context.Background()); err != nil {
			d.logger.Error("background task failed", "task", q.name, "error", err)
		} else {
			d.logger.Info("background task done", "task", q.name)
		}
	}
}

// Submit returns immediately in every case. When the queue is full the
// task is dropped with a warning; delivery is best effort and must never
// stall the caller's response.
func (d *Dispatcher) Submit(name string, task func(ctx context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("task dropped, dispatcher closed", "task", name)
		return
	}
	select {
	case d.tasks <- queued{name: name, task: task}:
	default:
		d.logger.Warn("task dropped, queue full", "task", name)
	}
}

// Close stops accepting tasks and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}
