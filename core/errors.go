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


package core

import "errors"

// Error taxonomy. ErrValidation and ErrNotFound are caller mistakes and are
// never retried. The remaining sentinels classify external-dependency
// failures: surfaced to the caller on the synchronous query path, logged and
// dropped on the asynchronous ingestion path.
var (
	// ErrValidation indicates a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a referenced conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrLoad indicates a document could not be parsed.
	ErrLoad = errors.New("document load failed")

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates the vector index rejected an operation.
	ErrIndex = errors.New("vector index operation failed")

	// ErrGeneration indicates the generative model failed or misbehaved.
	ErrGeneration = errors.New("generation failed")

	// ErrEmptyContent indicates the message content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")
)
