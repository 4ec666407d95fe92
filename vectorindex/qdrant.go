package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/poiesic/docchat/core"
)

// errCollectionMissing marks a 404 from the server. It still satisfies
// errors.Is(err, core.ErrIndex) for callers that don't care.
var errCollectionMissing = fmt.Errorf("%w: collection not found", core.ErrIndex)

// Qdrant is a minimal REST client to a Qdrant server. It assumes cosine
// distance. Collections are created lazily through EnsureCollection, guarded
// per collection name so concurrent first writers don't race the create.
type Qdrant struct {
	url    string
	apiKey string
	client *http.Client
	logger *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool
	guards  map[string]*sync.Mutex
}

var _ Index = (*Qdrant)(nil)

// QdrantConfig contains connection details for a Qdrant server.
type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewQdrant creates a Qdrant index client.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "qdrant"),
		ensured: map[string]bool{},
		guards:  map[string]*sync.Mutex{},
	}
}

// guard returns the creation mutex for one collection name.
func (q *Qdrant) guard(collection string) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()
	g, ok := q.guards[collection]
	if !ok {
		g = &sync.Mutex{}
		q.guards[collection] = g
	}
	return g
}

// EnsureCollection idempotently creates the collection if absent.
func (q *Qdrant) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", core.ErrIndex, dimension)
	}

	g := q.guard(collection)
	g.Lock()
	defer g.Unlock()

	q.mu.Lock()
	done := q.ensured[collection]
	q.mu.Unlock()
	if done {
		return nil
	}

	// Qdrant returns 200 if the collection already exists with the same
	// schema, so the PUT itself is idempotent.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := q.putJSON(ctx, fmt.Sprintf("%s/collections/%s", q.url, collection), body); err != nil {
		return err
	}

	q.mu.Lock()
	q.ensured[collection] = true
	q.mu.Unlock()

	q.logger.Debug("collection ensured", "collection", collection, "dimension", dimension)
	return nil
}

// Upsert writes chunks into the collection.
func (q *Qdrant) Upsert(ctx context.Context, collection string, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		points[i] = map[string]any{
			"id":     chunk.Id,
			"vector": chunk.Vector,
			"payload": map[string]any{
				"conversation_id": chunk.ConversationId,
				"filename":        chunk.Filename,
				"position":        chunk.Position,
				"page":            chunk.Page,
				"text":            chunk.Text,
				"embedding_model": chunk.EmbeddingModel,
			},
		}
	}
	body := map[string]any{"points": points}
	return q.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, collection), body)
}

// Query performs a filtered nearest-neighbor search.
func (q *Qdrant) Query(ctx context.Context, collection string, vector []float32, k int, conversationId string) ([]core.ScoredChunk, error) {
	if k <= 0 {
		k = 2
	}

	// The conversation filter is a correctness filter, not a ranking bias:
	// chunks of other conversations must never appear, whatever their score.
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "conversation_id",
					"match": map[string]any{"value": conversationId},
				},
			},
		},
	}

	var resp struct {
		Result []struct {
			Id      uint64         `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", q.url, collection), req, &resp); err != nil {
		// The collection appears at first ingest. A conversation with no
		// documents yet has nothing to search; that is empty results, not
		// a failure.
		if errors.Is(err, errCollectionMissing) {
			return nil, nil
		}
		return nil, err
	}

	results := make([]core.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := core.Chunk{Id: r.Id}
		if v, ok := r.Payload["conversation_id"].(string); ok {
			chunk.ConversationId = v
		}
		if v, ok := r.Payload["filename"].(string); ok {
			chunk.Filename = v
		}
		if v, ok := r.Payload["position"].(float64); ok {
			chunk.Position = int(v)
		}
		if v, ok := r.Payload["page"].(float64); ok {
			chunk.Page = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := r.Payload["embedding_model"].(string); ok {
			chunk.EmbeddingModel = v
		}
		results = append(results, core.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// DropCollection removes the collection and all its points.
func (q *Qdrant) DropCollection(ctx context.Context, collection string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", q.url, collection), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndex, err)
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndex, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: DELETE collection %s failed: %s", core.ErrIndex, collection, resp.Status)
	}

	q.mu.Lock()
	delete(q.ensured, collection)
	delete(q.guards, collection)
	q.mu.Unlock()
	return nil
}

// Close releases client resources.
func (q *Qdrant) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *Qdrant) putJSON(ctx context.Context, url string, body any) error {
	return q.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (q *Qdrant) postJSON(ctx context.Context, url string, body any, out any) error {
	return q.doJSON(ctx, http.MethodPost, url, body, out)
}

func (q *Qdrant) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndex, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndex, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndex, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s: %s", errCollectionMissing, method, url, resp.Status)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s failed: %s", core.ErrIndex, method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %w", core.ErrIndex, err)
		}
	}
	return nil
}
