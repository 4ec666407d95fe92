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

import "fmt"

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - ConversationId must not be empty
//   - Content must not be empty
//   - Role must be valid (user or assistant)
//
// NOT validated:
//   - Id (generated by the store when empty)
//   - Sources (empty for user turns)
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrValidation)
	}

	if msg.ConversationId == "" {
		return fmt.Errorf("%w: conversation id required", ErrValidation)
	}

	if msg.Content == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
	}

	if err := ValidateRole(msg.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// ValidateJob validates an IngestionJob before it enters the pipeline.
// A job without a conversation id is malformed input, not worth redelivering.
func ValidateJob(job *IngestionJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrValidation)
	}

	if job.ConversationId == "" {
		return fmt.Errorf("%w: job missing conversation id", ErrValidation)
	}

	if job.Path == "" {
		return fmt.Errorf("%w: job missing file path", ErrValidation)
	}

	return nil
}
