package document

import (
	"regexp"
	"strings"

	"github.com/poiesic/docchat/core"
)

// SentenceChunker splits page text into sentence-based chunks with overlap.
// Chunk positions are assigned in extraction order across the whole document.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// NewSentenceChunker creates a chunker producing chunks of sentencesPerChunk
// sentences, with overlapSentences sentences repeated between neighbors.
func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits the loaded pages into chunks tagged with the owning
// conversation id and source filename. Vectors are left empty; the
// ingestion pipeline populates them.
func (c *SentenceChunker) Chunk(conversationId, filename string, pages []Page) []core.Chunk {
	var chunks []core.Chunk
	position := 0

	for _, page := range pages {
		sentences := c.splitter.FindAllString(page.Text, -1)
		if len(sentences) == 0 {
			trimmed := strings.TrimSpace(page.Text)
			if trimmed == "" {
				continue
			}
			sentences = []string{trimmed}
		}
		for i := range sentences {
			sentences[i] = strings.TrimSpace(sentences[i])
		}

		i := 0
		for i < len(sentences) {
			end := i + c.sentencesPerChunk
			if end > len(sentences) {
				end = len(sentences)
			}
			text := strings.Join(sentences[i:end], " ")
			chunks = append(chunks, core.Chunk{
				ConversationId: conversationId,
				Filename:       filename,
				Position:       position,
				Page:           page.Number,
				Text:           text,
			})
			position++
			if end == len(sentences) {
				break
			}
			i = end - c.overlapSentences
		}
	}

	return chunks
}
