package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/poiesic/docchat/core"
)

// TaskTypeIngestDocument is the queue task name for ingesting one uploaded
// document into a conversation's index.
const TaskTypeIngestDocument = "ingestion:document"

// ingestPayload is the JSON payload transported via the queue.
// Kept decoupled from core types to avoid tight coupling with JSON tags.
type ingestPayload struct {
	Filename       string `json:"filename"`
	Source         string `json:"source"`
	Path           string `json:"path"`
	ConversationID string `json:"conversationId"`
}

// EnqueueIngestion encodes the job and enqueues it for the ingestion workers.
// Delivery is at-least-once and the consumer tolerates redelivery, so no
// uniqueness constraint is requested.
func EnqueueIngestion(ctx context.Context, client Client, job *core.IngestionJob, opts ...EnqueueOption) (string, error) {
	if err := core.ValidateJob(job); err != nil {
		return "", err
	}

	payload, err := json.Marshal(ingestPayload{
		Filename:       job.Filename,
		Source:         job.SourceDir,
		Path:           job.Path,
		ConversationID: job.ConversationId,
	})
	if err != nil {
		return "", err
	}

	return client.Enqueue(ctx, Task{Type: TaskTypeIngestDocument, Payload: payload}, opts...)
}

// DecodeIngestionJob decodes an ingestion task payload.
func DecodeIngestionJob(t Task) (*core.IngestionJob, error) {
	if t.Type != TaskTypeIngestDocument {
		return nil, fmt.Errorf("unexpected task type %q", t.Type)
	}
	var p ingestPayload
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode ingestion payload: %w", err)
	}
	return &core.IngestionJob{
		Filename:       p.Filename,
		SourceDir:      p.Source,
		Path:           p.Path,
		ConversationId: p.ConversationID,
	}, nil
}
