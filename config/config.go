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

// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob, populated from environment variables.
type Config struct {
	// Storage
	DataDir string `env:"DOCCHAT_DATA_DIR" envDefault:"./data"`

	// Vector index
	QdrantURL    string `env:"DOCCHAT_QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantAPIKey string `env:"DOCCHAT_QDRANT_API_KEY"`

	// Queue. Empty RedisURI selects the in-process queue.
	RedisURI string `env:"DOCCHAT_REDIS_URI"`

	// AI provider
	AIHost          string  `env:"DOCCHAT_AI_HOST" envDefault:"http://localhost:11434/v1"`
	EmbeddingModel  string  `env:"DOCCHAT_EMBEDDING_MODEL" envDefault:"embeddinggemma"`
	CompletionModel string  `env:"DOCCHAT_COMPLETION_MODEL" envDefault:"qwen2.5:3b"`
	AIToken         string  `env:"DOCCHAT_AI_TOKEN"`
	Temperature     float64 `env:"DOCCHAT_TEMPERATURE" envDefault:"0.7"`
	MaxTokens       int     `env:"DOCCHAT_MAX_TOKENS" envDefault:"1024"`

	// Ingestion
	WorkerCount       int `env:"DOCCHAT_WORKER_COUNT" envDefault:"100"`
	SentencesPerChunk int `env:"DOCCHAT_SENTENCES_PER_CHUNK" envDefault:"5"`
	OverlapSentences  int `env:"DOCCHAT_OVERLAP_SENTENCES" envDefault:"1"`

	// Retrieval
	TopK int `env:"DOCCHAT_TOP_K" envDefault:"2"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
