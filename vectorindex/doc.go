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


// Package vectorindex stores chunk embeddings in per-conversation collections
// and answers filtered nearest-neighbor queries.
//
// Every chunk carries the conversation id of its originating upload, and
// every query applies a hard filter on that id. Combined with one collection
// per conversation, this is what guarantees that a chunk is never returned
// for a conversation other than the one that produced it.
//
// Two implementations are provided: Qdrant (REST) for production and Memory
// (brute-force cosine) for tests and single-process use.
package vectorindex
