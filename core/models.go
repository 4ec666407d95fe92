package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// NewID generates a random identifier for a domain entity.
func NewID() string {
	return uuid.NewString()
}

// PointID generates a deterministic numeric identifier for an indexed chunk
// using BLAKE2b hashing. Identical content always produces the same ID, which
// makes re-ingestion of the same document an idempotent upsert rather than a
// duplicate insert.
func PointID(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the generated reply.
	RoleAssistant
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Conversation is the unit of isolation: every document, chunk and message
// belongs to exactly one conversation. Deleting a conversation cascades to
// its messages, files and indexed chunks.
type Conversation struct {
	Id        string
	Name      string
	CreatedAt time.Time
}

// Message is a single turn in a conversation. Messages are append-only and
// read back in creation order.
type Message struct {
	Id             string
	ConversationId string
	Role           Role
	Content        string
	CreatedAt      time.Time
	Sources        []string // Chunk texts the answer was grounded on (assistant turns only)
}

// File records the metadata of an ingested upload. The physical bytes are
// owned by the upload handler; only the path travels through the queue.
type File struct {
	Id             string
	ConversationId string
	Filename       string
	CreatedAt      time.Time
}

// IngestionJob is the transient queue payload describing one upload to ingest.
// Delivery is at-least-once; consumers must tolerate redelivery.
type IngestionJob struct {
	Filename       string
	SourceDir      string
	Path           string
	ConversationId string
}

// Chunk is a bounded span of document text plus its embedding vector, the
// atomic unit of retrieval. Immutable once indexed.
type Chunk struct {
	Id             uint64
	ConversationId string
	Filename       string
	Position       int // Extraction position within the source document
	Page           int
	Text           string
	Vector         []float32
	EmbeddingModel string // Model that produced Vector, stamped at ingestion time
}

// ScoredChunk is a chunk returned from similarity search with its relevance score.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}
