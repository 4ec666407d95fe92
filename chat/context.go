package chat

import (
	"strings"

	"github.com/poiesic/docchat/core"
)

// buildContext concatenates retrieved chunk texts in descending similarity
// order, separated by a paragraph break, forming the grounding context for
// the generator.
func buildContext(chunks []core.ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, sc := range chunks {
		texts[i] = sc.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}

// chunkSources returns the ranked chunk texts retained as the answer's
// source list.
func chunkSources(chunks []core.ScoredChunk) []string {
	sources := make([]string, len(chunks))
	for i, sc := range chunks {
		sources[i] = sc.Chunk.Text
	}
	return sources
}
