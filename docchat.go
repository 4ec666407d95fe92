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

package docchat

import (
	"log/slog"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/openai"
	"github.com/poiesic/docchat/chat"
	"github.com/poiesic/docchat/config"
	"github.com/poiesic/docchat/document"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/store"
	"github.com/poiesic/docchat/store/badger"
	"github.com/poiesic/docchat/vectorindex"
)

// App wires the storage, vector index and AI provider together and hands
// out the ingestion pipeline and chat engine built on top of them.
type App struct {
	store    store.Store
	index    vectorindex.Index
	provider ai.Provider
	logger   *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	aiConfig *ai.Config
	index    vectorindex.Index
}

// WithAIConfig overrides the AI provider configuration.
func WithAIConfig(cfg *ai.Config) AppOption {
	return func(o *appOptions) {
		o.aiConfig = cfg
	}
}

// WithQdrant stores vectors in a Qdrant server instead of the default
// in-process index.
func WithQdrant(url, apiKey string) AppOption {
	return func(o *appOptions) {
		o.index = vectorindex.NewQdrant(vectorindex.QdrantConfig{URL: url, APIKey: apiKey})
	}
}

// WithIndex supplies a custom vector index.
func WithIndex(index vectorindex.Index) AppOption {
	return func(o *appOptions) {
		o.index = index
	}
}

// New creates an App with its storage at dataDir. Pass options to point it
// at a Qdrant server or a non-default AI endpoint; without them it runs
// fully in-process apart from the AI calls.
func New(dataDir string, opts ...AppOption) (*App, error) {
	options := &appOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.index == nil {
		options.index = vectorindex.NewMemory()
	}

	backend, err := badger.OpenBackend(dataDir, false)
	if err != nil {
		return nil, err
	}
	st := badger.NewStore(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{
		store:    st,
		index:    options.index,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// FromConfig creates an App from environment-driven configuration.
func FromConfig(cfg *config.Config) (*App, error) {
	aiOpts := []ai.ConfigOption{
		ai.WithHost(cfg.AIHost),
		ai.WithEmbeddingModel(cfg.EmbeddingModel),
		ai.WithCompletionModel(cfg.CompletionModel),
		ai.WithTemperature(cfg.Temperature),
		ai.WithMaxTokens(cfg.MaxTokens),
	}
	if cfg.AIToken != "" {
		aiOpts = append(aiOpts, ai.WithToken(cfg.AIToken))
	}
	return New(cfg.DataDir,
		WithQdrant(cfg.QdrantURL, cfg.QdrantAPIKey),
		WithAIConfig(ai.NewConfig(aiOpts...)),
	)
}

// Store returns the conversation storage.
func (a *App) Store() store.Store {
	return a.store
}

// Index returns the vector index.
func (a *App) Index() vectorindex.Index {
	return a.index
}

// Provider returns the AI provider.
func (a *App) Provider() ai.Provider {
	return a.provider
}

// NewIngestionPipeline builds an ingestion pipeline over the app's services.
func (a *App) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(document.NewFileLoader(), a.provider.Embedder(), a.index, a.store, opts...)
}

// NewEngine builds a chat engine over the app's services.
func (a *App) NewEngine(opts ...chat.Option) (*chat.Engine, error) {
	return chat.NewEngine(a.store, a.index, a.provider, opts...)
}

// Close releases the AI provider, the index and the storage backend.
func (a *App) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector index", "err", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}
