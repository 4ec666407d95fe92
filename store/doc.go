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


// Package store defines the persistence interfaces for conversations,
// messages and uploaded-file metadata, together with the serialization
// helpers shared by backends.
//
// All data is partitioned by conversation: messages and files are created,
// listed and deleted only within the scope of one conversation, and deleting
// a conversation cascades to everything it owns.
//
// The store/badger sub-package provides the BadgerDB implementation.
package store
