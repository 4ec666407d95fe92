package vectorindex

import (
	"context"
	"strings"

	"github.com/poiesic/docchat/core"
)

// Index stores chunk vectors in per-conversation collections and answers
// filtered nearest-neighbor queries. Implementations must be thread-safe;
// concurrent upserts into the same collection are expected.
type Index interface {
	// EnsureCollection idempotently creates the collection if absent.
	// Safe under concurrent first writers for a brand-new conversation.
	EnsureCollection(ctx context.Context, collection string, dimension int) error

	// Upsert writes chunks into the collection. Chunk IDs are deterministic,
	// so redelivered jobs overwrite rather than duplicate.
	Upsert(ctx context.Context, collection string, chunks []core.Chunk) error

	// Query returns the k nearest chunks to the vector, restricted by a hard
	// filter to chunks whose metadata carries the given conversation id.
	// Results are ordered by descending similarity.
	Query(ctx context.Context, collection string, vector []float32, k int, conversationId string) ([]core.ScoredChunk, error)

	// DropCollection removes the collection and all its points.
	// Dropping an absent collection is not an error.
	DropCollection(ctx context.Context, collection string) error

	// Close releases resources held by the index client.
	Close() error
}

// CollectionName derives the index collection name for a conversation.
// Conversation ids are UUIDs; the prefix keeps collections recognizable and
// the replacement keeps the name safe for backends that reject colons.
func CollectionName(conversationId string) string {
	return "conv_" + strings.ReplaceAll(conversationId, ":", "_")
}
