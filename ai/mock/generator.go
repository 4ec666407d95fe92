package mock

import (
	"context"

	"github.com/poiesic/docchat/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via a function field.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default behavior: echo a short grounded answer, or the
	// fixed refusal when the context is empty.
	GenerateFunc func(ctx context.Context, contextText, question string) (string, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a deterministic answer derived from the inputs.
func (m *MockGenerator) Generate(ctx context.Context, contextText, question string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, contextText, question)
	}

	if contextText == "" {
		return ai.Refusal, nil
	}
	return "**Answer:** " + contextText, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
}
