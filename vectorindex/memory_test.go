package vectorindex

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/docchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitVec builds a test vector; callers pass basis-like vectors that are
// already unit length.
func unitVec(vals ...float32) []float32 {
	return vals
}

func TestMemoryUpsertAndQuery(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()
	coll := CollectionName("conv-a")

	require.NoError(t, idx.EnsureCollection(ctx, coll, 3))
	require.NoError(t, idx.Upsert(ctx, coll, []core.Chunk{
		{Id: 1, ConversationId: "conv-a", Text: "near", Vector: unitVec(1, 0, 0)},
		{Id: 2, ConversationId: "conv-a", Text: "far", Vector: unitVec(0, 1, 0)},
	}))

	results, err := idx.Query(ctx, coll, unitVec(1, 0, 0), 2, "conv-a")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryConversationIsolation(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()
	coll := CollectionName("conv-a")

	require.NoError(t, idx.EnsureCollection(ctx, coll, 3))
	require.NoError(t, idx.Upsert(ctx, coll, []core.Chunk{
		{Id: 1, ConversationId: "conv-a", Text: "a's chunk", Vector: unitVec(1, 0, 0)},
		// A chunk mislabeled into the same collection must still be filtered out.
		{Id: 2, ConversationId: "conv-b", Text: "b's chunk", Vector: unitVec(1, 0, 0)},
	}))

	results, err := idx.Query(ctx, coll, unitVec(1, 0, 0), 10, "conv-b")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b's chunk", results[0].Chunk.Text)

	results, err = idx.Query(ctx, coll, unitVec(1, 0, 0), 10, "conv-a")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a's chunk", results[0].Chunk.Text)
}

func TestMemoryDuplicateUpsertIsIdempotent(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()
	coll := CollectionName("conv-a")

	chunks := []core.Chunk{
		{Id: 7, ConversationId: "conv-a", Text: "same chunk", Vector: unitVec(1, 0, 0)},
	}

	require.NoError(t, idx.EnsureCollection(ctx, coll, 3))
	require.NoError(t, idx.Upsert(ctx, coll, chunks))
	require.NoError(t, idx.Upsert(ctx, coll, chunks)) // simulated redelivery

	assert.Equal(t, 1, idx.Len(coll))
}

func TestMemoryQueryMissingCollection(t *testing.T) {
	idx := NewMemory()

	results, err := idx.Query(context.Background(), "absent", unitVec(1, 0, 0), 2, "conv-a")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryDimensionMismatch(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()

	require.NoError(t, idx.EnsureCollection(ctx, "c", 3))
	err := idx.Upsert(ctx, "c", []core.Chunk{
		{Id: 1, ConversationId: "conv-a", Vector: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, core.ErrIndex)
}

func TestMemoryDropCollection(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()

	require.NoError(t, idx.EnsureCollection(ctx, "c", 3))
	require.NoError(t, idx.Upsert(ctx, "c", []core.Chunk{
		{Id: 1, ConversationId: "conv-a", Vector: unitVec(1, 0, 0)},
	}))
	require.NoError(t, idx.DropCollection(ctx, "c"))
	assert.Equal(t, 0, idx.Len("c"))

	// Dropping again is not an error.
	assert.NoError(t, idx.DropCollection(ctx, "c"))
}

func TestMemoryConcurrentEnsureAndUpsert(t *testing.T) {
	idx := NewMemory()
	ctx := context.Background()
	coll := CollectionName("conv-a")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			require.NoError(t, idx.EnsureCollection(ctx, coll, 3))
			require.NoError(t, idx.Upsert(ctx, coll, []core.Chunk{
				{Id: uint64(n), ConversationId: "conv-a", Vector: unitVec(1, 0, 0)},
			}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, idx.Len(coll))
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "conv_abc", CollectionName("abc"))
	assert.Equal(t, "conv_a_b", CollectionName("a:b"))
}
