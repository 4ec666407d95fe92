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


// Package ai provides abstractions for the AI services used by docchat.
//
// The package defines interfaces for text embedding and grounded answer
// generation. It follows the dependency inversion principle, allowing the
// ingestion and query pipelines to depend on abstractions rather than
// concrete implementations.
//
// The package is designed around three key interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Generator: produces answers constrained to retrieved context
//   - Provider: aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
package ai
