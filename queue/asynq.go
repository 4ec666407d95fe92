package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// AsynqClient implements Client using github.com/hibiken/asynq with Redis as
// the backing store. Redis gives the queue durability and at-least-once
// delivery across process restarts.
type AsynqClient struct {
	client *asynq.Client
}

var _ Client = (*AsynqClient)(nil)

// NewAsynqClient constructs a client from a redis URI
// (e.g. "redis://localhost:6379/0").
func NewAsynqClient(redisURI string) (*AsynqClient, error) {
	if redisURI == "" {
		return nil, errors.New("asynq: redis URI is required")
	}
	opt, err := asynq.ParseRedisURI(redisURI)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis URI: %w", err)
	}
	return &AsynqClient{client: asynq.NewClient(opt)}, nil
}

// Enqueue submits a task for background processing.
func (a *AsynqClient) Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("asynq: task type is required")
	}
	at := asynq.NewTask(t.Type, t.Payload)

	// MaxRetry defaults to 0: a failed ingestion job is terminal, the
	// pipeline logs and drops it rather than redelivering.
	asynqOpts := []asynq.Option{asynq.MaxRetry(0)}
	if len(opts) > 0 {
		op := opts[0]
		if op.Queue != "" {
			asynqOpts = append(asynqOpts, asynq.Queue(op.Queue))
		}
		if op.ProcessIn > 0 {
			asynqOpts = append(asynqOpts, asynq.ProcessIn(op.ProcessIn))
		}
		if op.MaxRetry > 0 {
			asynqOpts = append(asynqOpts, asynq.MaxRetry(op.MaxRetry))
		}
		if op.Retention > 0 {
			asynqOpts = append(asynqOpts, asynq.Retention(op.Retention))
		}
	}

	info, err := a.client.EnqueueContext(ctx, at, asynqOpts...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Close closes the underlying client connection.
func (a *AsynqClient) Close() error {
	return a.client.Close()
}

// AsynqServer implements Server using github.com/hibiken/asynq.
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

var _ Server = (*AsynqServer)(nil)

// NewAsynqServer constructs a server consuming from the given redis URI with
// the given handler concurrency.
func NewAsynqServer(redisURI string, concurrency int) (*AsynqServer, error) {
	if redisURI == "" {
		return nil, errors.New("asynq: redis URI is required")
	}
	opt, err := asynq.ParseRedisURI(redisURI)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis URI: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	logger := slog.Default().With("component", "queue-server")
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", "type", task.Type(), "err", err)
		}),
	})
	return &AsynqServer{server: srv, mux: asynq.NewServeMux(), logger: logger}, nil
}

// Register binds a handler to a task type.
func (s *AsynqServer) Register(taskType string, h Handler) {
	s.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		return h(ctx, Task{Type: t.Type(), Payload: t.Payload()})
	})
}

// Run starts the server and blocks until the context is canceled, then
// gracefully shuts down.
func (s *AsynqServer) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	s.server.Shutdown()
	return nil
}

// Stop gracefully shuts down the server.
func (s *AsynqServer) Stop(ctx context.Context) error {
	_ = ctx // Shutdown takes no context in the current asynq version
	s.server.Shutdown()
	return nil
}
