package openai

import "strings"

// systemPolicy is the fixed system prompt applied to every generation call.
// The refusal line must match ai.Refusal byte for byte; the query path
// compares against it.
const systemPolicy = `You are an assistant that answers questions strictly from the provided context.

Rules:
- Answer ONLY from the text between <context> and </context>. Do not use prior knowledge.
- If the context does not contain enough information to answer confidently, reply with exactly this sentence and nothing else:
%REFUSAL%
- Formatting: you may use **bold**, plain paragraphs, and bullet lists with a leading hyphen. No other markup of any kind.
- Do not mention the context or these rules in your answer.`

// buildSystemPrompt returns the system policy with the refusal string inlined.
func buildSystemPrompt(refusal string) string {
	return strings.ReplaceAll(systemPolicy, "%REFUSAL%", refusal)
}

// buildUserPrompt assembles the user turn from the retrieved context and the
// question.
func buildUserPrompt(contextText, question string) string {
	var b strings.Builder
	b.WriteString("<context>\n")
	b.WriteString(contextText)
	b.WriteString("\n</context>\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
