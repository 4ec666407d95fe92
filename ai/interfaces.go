package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// The same model/version must be used at ingestion and query time for an index
// to remain meaningful. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifier of the embedding model in use.
	Model() string
}

// Generator produces a grounded answer from retrieved context and a question.
// Implementations apply a fixed system policy: answer only from the supplied
// context and return the fixed refusal string when confidence is low.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate invokes the generative model with the assembled context and the
	// user's question and returns the answer text.
	// Returns an error on provider timeout, rate limiting, or malformed response.
	Generate(ctx context.Context, contextText, question string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the grounded answer generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
