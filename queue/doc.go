// Package queue decouples upload acceptance from ingestion work behind a
// durable, at-least-once task broker.
//
// The Client/Server/Handler types form a small port: producers enqueue typed
// tasks with opaque payloads, consumers register handlers per task type.
// The asynq adapter backs the port with Redis for production; Local is an
// in-process implementation for tests and single-process runs.
package queue
