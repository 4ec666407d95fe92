package vectorindex

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/docchat/core"
)

// Memory is an in-memory index using brute-force cosine similarity.
// It backs tests and single-process deployments without a Qdrant server.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	points    map[uint64]core.Chunk
}

var _ Index = (*Memory)(nil)

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{collections: map[string]*memoryCollection{}}
}

// EnsureCollection idempotently creates the collection if absent.
func (m *Memory) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", core.ErrIndex, dimension)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = &memoryCollection{
			dimension: dimension,
			points:    map[uint64]core.Chunk{},
		}
	}
	return nil
}

// Upsert writes chunks into the collection, keyed by chunk ID so duplicate
// inserts replace rather than accumulate.
func (m *Memory) Upsert(ctx context.Context, collection string, chunks []core.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: collection %s does not exist", core.ErrIndex, collection)
	}
	for _, chunk := range chunks {
		if len(chunk.Vector) != coll.dimension {
			return fmt.Errorf("%w: vector dimension %d, collection expects %d", core.ErrIndex, len(chunk.Vector), coll.dimension)
		}
		coll.points[chunk.Id] = chunk
	}
	return nil
}

// Query performs a filtered brute-force search over the collection.
func (m *Memory) Query(ctx context.Context, collection string, vector []float32, k int, conversationId string) ([]core.ScoredChunk, error) {
	if k <= 0 {
		k = 2
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[collection]
	if !ok {
		return nil, nil
	}

	var results []core.ScoredChunk
	for _, chunk := range coll.points {
		if chunk.ConversationId != conversationId {
			continue
		}
		results = append(results, core.ScoredChunk{
			Chunk: chunk,
			Score: dotProduct(vector, chunk.Vector),
		})
	}

	slices.SortFunc(results, func(a, b core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DropCollection removes the collection and all its points.
func (m *Memory) DropCollection(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

// Close is a no-op for the in-memory index.
func (m *Memory) Close() error {
	return nil
}

// Len returns the number of points in a collection, for test assertions.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[collection]
	if !ok {
		return 0
	}
	return len(coll.points)
}

// dotProduct calculates the dot product of two vectors. Vectors are assumed
// L2-normalized, so this is cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
