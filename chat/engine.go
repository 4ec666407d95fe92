// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/store"
	"github.com/poiesic/docchat/vectorindex"
)

const defaultTopK = 2

// Engine answers questions grounded in a conversation's ingested documents.
// It owns the synchronous request path: persist the user turn, embed the
// question, retrieve similar chunks from the conversation's collection and
// generate an answer from them.
type Engine struct {
	store          store.Store
	index          vectorindex.Index
	embedder       ai.Embedder
	generator      ai.Generator
	topK           int
	retryAttempts  int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets the number of chunks retrieved per question.
// Default is 2.
func WithTopK(k int) Option {
	return func(e *Engine) error {
		if k < 1 {
			k = defaultTopK
		}
		e.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithGenerationRetry bounds retries of a failed generation call.
// Default is a single attempt with no retry.
func WithGenerationRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(e *Engine) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		e.retryAttempts = maxAttempts
		e.retryBaseDelay = baseDelay
		return nil
	}
}

// NewEngine creates a new chat engine.
func NewEngine(
	st store.Store,
	index vectorindex.Index,
	provider ai.Provider,
	opts ...Option,
) (*Engine, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	e := &Engine{
		store:          st,
		index:          index,
		embedder:       provider.Embedder(),
		generator:      provider.Generator(),
		topK:           defaultTopK,
		retryAttempts:  1,
		retryBaseDelay: 500 * time.Millisecond,
		logger:         slog.Default().With("component", "chat"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// CreateConversation creates a named conversation.
func (e *Engine) CreateConversation(ctx context.Context, name string) (*core.Conversation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: conversation name is required", core.ErrValidation)
	}
	return e.store.AddConversation(ctx, &core.Conversation{Name: name})
}

// GetConversation retrieves a conversation by ID.
func (e *Engine) GetConversation(ctx context.Context, id string) (*core.Conversation, error) {
	conv, err := e.store.GetConversation(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return conv, nil
}

// ListConversations retrieves all conversations, newest first.
func (e *Engine) ListConversations(ctx context.Context) ([]*core.Conversation, error) {
	return e.store.ListConversations(ctx)
}

// DeleteConversation removes a conversation, its messages, its file records
// and its vector collection. Nothing outside the conversation is touched.
// Dropping the collection is best-effort once the store cascade has
// committed; leftover vectors stay invisible behind the conversation filter.
func (e *Engine) DeleteConversation(ctx context.Context, id string) error {
	if err := e.store.DeleteConversation(ctx, id); err != nil {
		return mapNotFound(err, id)
	}
	if err := e.index.DropCollection(ctx, vectorindex.CollectionName(id)); err != nil {
		// The store cascade has already committed. Orphaned vectors are
		// unreachable behind the conversation filter, so treat them like a
		// failed ingestion job: log and move on.
		e.logger.Error("error dropping vector collection", "conversation", id, "err", err)
	}
	e.logger.Info("conversation deleted", "conversation", id)
	return nil
}

// ListMessages retrieves a conversation's messages in creation order.
// A limit <= 0 returns all messages.
func (e *Engine) ListMessages(ctx context.Context, conversationId string, limit int) ([]*core.Message, error) {
	if _, err := e.store.GetConversation(ctx, conversationId); err != nil {
		return nil, mapNotFound(err, conversationId)
	}
	return e.store.ListMessages(ctx, conversationId, limit)
}

// ListFiles retrieves the file records ingested into a conversation.
func (e *Engine) ListFiles(ctx context.Context, conversationId string) ([]*core.File, error) {
	if _, err := e.store.GetConversation(ctx, conversationId); err != nil {
		return nil, mapNotFound(err, conversationId)
	}
	return e.store.ListFiles(ctx, conversationId)
}

// Retrieve embeds the question and returns the top chunks from the
// conversation's collection, most similar first. Only chunks belonging to
// the conversation are ever returned; the filter is applied inside the
// index, not after the fact.
func (e *Engine) Retrieve(ctx context.Context, conversationId, question string) ([]core.ScoredChunk, error) {
	if conversationId == "" {
		return nil, fmt.Errorf("%w: conversation id is required", core.ErrValidation)
	}

	embedding, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		e.logger.Error("error embedding question", "conversation", conversationId, "err", err)
		return nil, err
	}

	collection := vectorindex.CollectionName(conversationId)
	chunks, err := e.index.Query(ctx, collection, embedding, e.topK, conversationId)
	if err != nil {
		e.logger.Error("error querying index", "conversation", conversationId, "err", err)
		return nil, err
	}

	model := e.embedder.Model()
	for _, sc := range chunks {
		if sc.Chunk.EmbeddingModel != "" && sc.Chunk.EmbeddingModel != model {
			e.logger.Warn("retrieved chunk embedded with a different model",
				"conversation", conversationId,
				"chunkModel", sc.Chunk.EmbeddingModel,
				"queryModel", model)
		}
	}

	return chunks, nil
}

// Ask answers a question grounded in the conversation's documents and
// persists both turns. The user turn is persisted before any retrieval or
// generation, so a failed question still appears in the history. When
// nothing relevant is retrieved the assistant turn is the fixed refusal and
// no generation call is made.
func (e *Engine) Ask(ctx context.Context, conversationId, question string) (*core.Message, error) {
	if conversationId == "" {
		return nil, fmt.Errorf("%w: conversation id is required", core.ErrValidation)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", core.ErrValidation)
	}
	if _, err := e.store.GetConversation(ctx, conversationId); err != nil {
		return nil, mapNotFound(err, conversationId)
	}

	if _, err := e.store.AddMessage(ctx, &core.Message{
		ConversationId: conversationId,
		Role:           core.RoleUser,
		Content:        question,
	}); err != nil {
		return nil, err
	}

	chunks, err := e.Retrieve(ctx, conversationId, question)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		e.logger.Info("no relevant chunks, answering with refusal", "conversation", conversationId)
		return e.store.AddMessage(ctx, &core.Message{
			ConversationId: conversationId,
			Role:           core.RoleAssistant,
			Content:        ai.Refusal,
		})
	}

	contextText := buildContext(chunks)

	var answer string
	err = retryWithBackoff(ctx, func() error {
		var genErr error
		answer, genErr = e.generator.Generate(ctx, contextText, question)
		return genErr
	}, e.retryAttempts, e.retryBaseDelay)
	if err != nil {
		e.logger.Error("error generating answer", "conversation", conversationId, "err", err)
		return nil, err
	}

	return e.store.AddMessage(ctx, &core.Message{
		ConversationId: conversationId,
		Role:           core.RoleAssistant,
		Content:        answer,
		Sources:        chunkSources(chunks),
	})
}

// mapNotFound translates the storage not-found sentinel into the domain one.
func mapNotFound(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: conversation %s", core.ErrNotFound, id)
	}
	return err
}
