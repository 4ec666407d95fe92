package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/docchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQdrantQuerySendsHardFilter(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"id":1,"score":0.9,"payload":{"conversation_id":"conv-a","text":"hit"}}]}`))
	}))
	defer srv.Close()

	idx := NewQdrant(QdrantConfig{URL: srv.URL})
	results, err := idx.Query(context.Background(), "conv_a", []float32{1, 0}, 2, "conv-a")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Chunk.Text)

	filter, ok := captured["filter"].(map[string]any)
	require.True(t, ok, "search request must carry a filter")
	must, ok := filter["must"].([]any)
	require.True(t, ok)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "conversation_id", cond["key"])
	assert.Equal(t, map[string]any{"value": "conv-a"}, cond["match"])
}

func TestQdrantQueryMissingCollectionIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"Collection conv_fresh doesn't exist"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	// No documents ingested yet means the collection was never created;
	// the query must come back empty so the refusal path runs.
	idx := NewQdrant(QdrantConfig{URL: srv.URL})
	results, err := idx.Query(context.Background(), "conv_fresh", []float32{1, 0}, 2, "fresh")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQdrantEnsureCollectionOncePerName(t *testing.T) {
	var creates atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			creates.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	idx := NewQdrant(QdrantConfig{URL: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, idx.EnsureCollection(context.Background(), "conv_a", 384))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), creates.Load())
}

func TestQdrantUpsertPayloadCarriesConversationId(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	idx := NewQdrant(QdrantConfig{URL: srv.URL})
	err := idx.Upsert(context.Background(), "conv_a", []core.Chunk{
		{
			Id:             42,
			ConversationId: "conv-a",
			Filename:       "policy.pdf",
			Position:       0,
			Page:           1,
			Text:           "All visitors must wear badges.",
			Vector:         []float32{1, 0},
			EmbeddingModel: "embeddinggemma",
		},
	})
	require.NoError(t, err)

	points := captured["points"].([]any)
	require.Len(t, points, 1)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "conv-a", payload["conversation_id"])
	assert.Equal(t, "embeddinggemma", payload["embedding_model"])
}

func TestQdrantErrorStatusWrapsIndexError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	idx := NewQdrant(QdrantConfig{URL: srv.URL})
	err := idx.EnsureCollection(context.Background(), "conv_a", 384)
	assert.ErrorIs(t, err, core.ErrIndex)
}
