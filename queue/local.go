package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Local is an in-process queue for tests and single-process deployments.
// It implements both Client and Server over a buffered channel. Delivery is
// at-most-once within the process; durability requires the asynq backend.
type Local struct {
	tasks  chan Task
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	closed   bool
}

var (
	_ Client = (*Local)(nil)
	_ Server = (*Local)(nil)
)

// NewLocal creates a local queue with the given buffer size.
func NewLocal(buffer int) *Local {
	if buffer <= 0 {
		buffer = 128
	}
	return &Local{
		tasks:    make(chan Task, buffer),
		handlers: map[string]Handler{},
		logger:   slog.Default().With("component", "local-queue"),
	}
}

// Enqueue places a task on the channel. Blocks when the buffer is full.
func (l *Local) Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("local queue: task type is required")
	}
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return "", errors.New("local queue: closed")
	}

	select {
	case l.tasks <- t:
		return uuid.NewString(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close marks the queue closed for producers.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Register binds a handler to a task type.
func (l *Local) Register(taskType string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[taskType] = h
}

// Run consumes tasks until the context is canceled. Handler errors are
// logged and the task is dropped, matching the ingestion failure policy.
func (l *Local) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-l.tasks:
			l.mu.RLock()
			h, ok := l.handlers[task.Type]
			l.mu.RUnlock()
			if !ok {
				l.logger.Warn("no handler for task", "type", task.Type)
				continue
			}
			if err := h(ctx, task); err != nil {
				l.logger.Error("task failed", "type", task.Type, "err", err)
			}
		}
	}
}

// Stop is a no-op; Run exits when its context is canceled.
func (l *Local) Stop(ctx context.Context) error {
	return nil
}
