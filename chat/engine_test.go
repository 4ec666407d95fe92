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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/mock"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/store/badger"
	"github.com/poiesic/docchat/vectorindex"
)

func newTestEngine(t *testing.T, index vectorindex.Index, provider ai.Provider, opts ...Option) (*Engine, *badger.Store) {
	t.Helper()
	st, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e, err := NewEngine(st, index, provider, opts...)
	require.NoError(t, err)
	return e, st
}

// fixedEmbedder returns a provider whose embedder always produces the given
// query vector, making similarity rankings deterministic in tests.
func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func seedChunks(t *testing.T, index *vectorindex.Memory, conversationId string, chunks ...core.Chunk) {
	t.Helper()
	collection := vectorindex.CollectionName(conversationId)
	require.NoError(t, index.EnsureCollection(context.Background(), collection, len(chunks[0].Vector)))
	require.NoError(t, index.Upsert(context.Background(), collection, chunks))
}

func TestAskPersistsBothTurns(t *testing.T) {
	index := vectorindex.NewMemory()
	provider := mock.NewMockProviderWithServices(
		fixedEmbedder([]float32{1, 0, 0}), mock.NewMockGenerator())
	e, _ := newTestEngine(t, index, provider)

	conv, err := e.CreateConversation(context.Background(), "physics")
	require.NoError(t, err)

	seedChunks(t, index, conv.Id, core.Chunk{
		Id:             1,
		ConversationId: conv.Id,
		Filename:       "mechanics.pdf",
		Text:           "Force equals mass times acceleration.",
		Vector:         []float32{1, 0, 0},
	})

	answer, err := e.Ask(context.Background(), conv.Id, "What is force?")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, answer.Role)
	assert.Contains(t, answer.Content, "Force equals mass times acceleration.")
	assert.Equal(t, []string{"Force equals mass times acceleration."}, answer.Sources)

	messages, err := e.ListMessages(context.Background(), conv.Id, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, "What is force?", messages[0].Content)
	assert.Equal(t, core.RoleAssistant, messages[1].Role)
}

func TestAskRefusesWithoutRetrievedChunks(t *testing.T) {
	index := vectorindex.NewMemory()
	provider := mock.NewMockProvider()
	e, _ := newTestEngine(t, index, provider)

	conv, err := e.CreateConversation(context.Background(), "empty")
	require.NoError(t, err)

	answer, err := e.Ask(context.Background(), conv.Id, "Anything in here?")
	require.NoError(t, err)
	assert.Equal(t, ai.Refusal, answer.Content)
	assert.Empty(t, answer.Sources)

	// The generator must never be invoked when retrieval comes back empty.
	mp := provider.(*mock.MockProvider)
	assert.Zero(t, mp.GetMockGenerator().CallCount())

	messages, err := e.ListMessages(context.Background(), conv.Id, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, ai.Refusal, messages[1].Content)
}

func TestAskIsScopedToConversation(t *testing.T) {
	index := vectorindex.NewMemory()
	provider := mock.NewMockProviderWithServices(
		fixedEmbedder([]float32{1, 0, 0}), mock.NewMockGenerator())
	e, _ := newTestEngine(t, index, provider)

	convA, err := e.CreateConversation(context.Background(), "chemistry")
	require.NoError(t, err)
	convB, err := e.CreateConversation(context.Background(), "history")
	require.NoError(t, err)

	seedChunks(t, index, convA.Id, core.Chunk{
		Id:             1,
		ConversationId: convA.Id,
		Filename:       "periodic.pdf",
		Text:           "Helium is a noble gas.",
		Vector:         []float32{1, 0, 0},
	})
	seedChunks(t, index, convB.Id, core.Chunk{
		Id:             2,
		ConversationId: convB.Id,
		Filename:       "rome.pdf",
		Text:           "Rome was founded on the Tiber.",
		Vector:         []float32{1, 0, 0},
	})

	answer, err := e.Ask(context.Background(), convB.Id, "Tell me a fact.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rome was founded on the Tiber."}, answer.Sources)
	assert.NotContains(t, answer.Content, "Helium")
}

func TestRetrieveRanksByTopK(t *testing.T) {
	index := vectorindex.NewMemory()
	provider := mock.NewMockProviderWithServices(
		fixedEmbedder([]float32{1, 0, 0}), mock.NewMockGenerator())
	e, _ := newTestEngine(t, index, provider)

	conv, err := e.CreateConversation(context.Background(), "ranked")
	require.NoError(t, err)

	seedChunks(t, index, conv.Id,
		core.Chunk{Id: 1, ConversationId: conv.Id, Text: "closest", Vector: []float32{1, 0, 0}},
		core.Chunk{Id: 2, ConversationId: conv.Id, Text: "near", Vector: []float32{0.9, 0.1, 0}},
		core.Chunk{Id: 3, ConversationId: conv.Id, Text: "far", Vector: []float32{0, 1, 0}},
	)

	chunks, err := e.Retrieve(context.Background(), conv.Id, "query")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "closest", chunks[0].Chunk.Text)
	assert.Equal(t, "near", chunks[1].Chunk.Text)
}

func TestAskGenerationFailureKeepsUserTurn(t *testing.T) {
	index := vectorindex.NewMemory()
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		return "", core.ErrGeneration
	}
	provider := mock.NewMockProviderWithServices(fixedEmbedder([]float32{1, 0, 0}), generator)
	e, _ := newTestEngine(t, index, provider)

	conv, err := e.CreateConversation(context.Background(), "flaky")
	require.NoError(t, err)
	seedChunks(t, index, conv.Id, core.Chunk{
		Id: 1, ConversationId: conv.Id, Text: "some fact", Vector: []float32{1, 0, 0},
	})

	_, err = e.Ask(context.Background(), conv.Id, "Will this fail?")
	assert.ErrorIs(t, err, core.ErrGeneration)

	messages, err := e.ListMessages(context.Background(), conv.Id, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, "Will this fail?", messages[0].Content)
}

func TestAskRetriesGeneration(t *testing.T) {
	index := vectorindex.NewMemory()
	generator := mock.NewMockGenerator()
	attempts := 0
	generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", core.ErrGeneration
		}
		return "recovered answer", nil
	}
	provider := mock.NewMockProviderWithServices(fixedEmbedder([]float32{1, 0, 0}), generator)
	e, _ := newTestEngine(t, index, provider,
		WithGenerationRetry(3, time.Millisecond))

	conv, err := e.CreateConversation(context.Background(), "retry")
	require.NoError(t, err)
	seedChunks(t, index, conv.Id, core.Chunk{
		Id: 1, ConversationId: conv.Id, Text: "some fact", Vector: []float32{1, 0, 0},
	})

	answer, err := e.Ask(context.Background(), conv.Id, "Eventually?")
	require.NoError(t, err)
	assert.Equal(t, "recovered answer", answer.Content)
	assert.Equal(t, 3, attempts)
}

func TestAskValidation(t *testing.T) {
	e, _ := newTestEngine(t, vectorindex.NewMemory(), mock.NewMockProvider())

	_, err := e.Ask(context.Background(), "conv-1", "   ")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = e.Ask(context.Background(), "", "A real question?")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = e.Ask(context.Background(), "nope", "A real question?")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateConversationValidation(t *testing.T) {
	e, _ := newTestEngine(t, vectorindex.NewMemory(), mock.NewMockProvider())

	_, err := e.CreateConversation(context.Background(), "  ")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDeleteConversationCascades(t *testing.T) {
	index := vectorindex.NewMemory()
	provider := mock.NewMockProviderWithServices(
		fixedEmbedder([]float32{1, 0, 0}), mock.NewMockGenerator())
	e, _ := newTestEngine(t, index, provider)

	conv, err := e.CreateConversation(context.Background(), "doomed")
	require.NoError(t, err)
	other, err := e.CreateConversation(context.Background(), "survivor")
	require.NoError(t, err)

	seedChunks(t, index, conv.Id, core.Chunk{
		Id: 1, ConversationId: conv.Id, Text: "gone soon", Vector: []float32{1, 0, 0},
	})
	seedChunks(t, index, other.Id, core.Chunk{
		Id: 2, ConversationId: other.Id, Text: "still here", Vector: []float32{1, 0, 0},
	})

	_, err = e.Ask(context.Background(), conv.Id, "Leave a trace?")
	require.NoError(t, err)

	require.NoError(t, e.DeleteConversation(context.Background(), conv.Id))

	_, err = e.GetConversation(context.Background(), conv.Id)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = e.ListMessages(context.Background(), conv.Id, 0)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Zero(t, index.Len(vectorindex.CollectionName(conv.Id)))

	// The other conversation is untouched.
	_, err = e.GetConversation(context.Background(), other.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, index.Len(vectorindex.CollectionName(other.Id)))
}

// failingDropIndex wraps a Memory index with a DropCollection that always
// errors, standing in for an unreachable Qdrant server.
type failingDropIndex struct {
	*vectorindex.Memory
}

func (f *failingDropIndex) DropCollection(ctx context.Context, collection string) error {
	return core.ErrIndex
}

func TestDeleteConversationSurvivesIndexFailure(t *testing.T) {
	index := &failingDropIndex{Memory: vectorindex.NewMemory()}
	e, _ := newTestEngine(t, index, mock.NewMockProvider())

	conv, err := e.CreateConversation(context.Background(), "orphaned")
	require.NoError(t, err)

	// The store cascade already committed; a failed collection drop is
	// logged, not surfaced.
	require.NoError(t, e.DeleteConversation(context.Background(), conv.Id))

	_, err = e.GetConversation(context.Background(), conv.Id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteConversationNotFound(t *testing.T) {
	e, _ := newTestEngine(t, vectorindex.NewMemory(), mock.NewMockProvider())

	err := e.DeleteConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	st, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer st.Close()
	index := vectorindex.NewMemory()
	provider := mock.NewMockProvider()

	_, err = NewEngine(nil, index, provider)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewEngine(st, nil, provider)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewEngine(st, index, nil)
	assert.ErrorIs(t, err, ErrProviderRequired)
}
