package store

import (
	"context"

	"github.com/poiesic/docchat/core"
)

// ConversationStore provides operations for managing conversations.
// Implementations must be thread-safe and support concurrent access.
type ConversationStore interface {
	// AddConversation adds a conversation to storage.
	// Generates an ID if empty and sets CreatedAt if zero.
	// Returns the conversation with ID and timestamp populated.
	AddConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error)

	// GetConversation retrieves a conversation by ID.
	// Returns ErrNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id string) (*core.Conversation, error)

	// ListConversations retrieves all conversations, newest first.
	ListConversations(ctx context.Context) ([]*core.Conversation, error)

	// DeleteConversation removes a conversation and cascades to its
	// messages and files. Other conversations' data is unaffected.
	// Returns ErrNotFound if the conversation doesn't exist.
	DeleteConversation(ctx context.Context, id string) error
}

// MessageStore provides operations for managing conversation turns.
// Messages are append-only.
type MessageStore interface {
	// AddMessage appends a message to its conversation.
	// Generates an ID if empty and sets CreatedAt if zero.
	AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error)

	// ListMessages retrieves a conversation's messages in creation order.
	// A limit <= 0 returns all messages.
	ListMessages(ctx context.Context, conversationId string, limit int) ([]*core.Message, error)
}

// FileStore provides operations for managing uploaded-file metadata.
type FileStore interface {
	// AddFile records the metadata of an ingested upload.
	// Generates an ID if empty and sets CreatedAt if zero.
	AddFile(ctx context.Context, file *core.File) (*core.File, error)

	// ListFiles retrieves a conversation's file records in creation order.
	ListFiles(ctx context.Context, conversationId string) ([]*core.File, error)
}

// Store aggregates the conversation, message and file stores behind a single
// backend with a shared lifecycle.
type Store interface {
	ConversationStore
	MessageStore
	FileStore

	// Close closes the storage backend and releases resources.
	Close() error
}
