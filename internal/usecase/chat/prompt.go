package chat

import (
	"fmt"
	"math"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

// NoRelevantInformation is returned verbatim when retrieval finds nothing.
const NoRelevantInformation = "I couldn't find relevant information in the document to answer your question. Could you please rephrase or ask something else?"

const contextSeparator = "\n\n---\n\n"

const systemRules = `You are a knowledgeable assistant helping users understand documents. Answer questions based strictly on the provided context.

Rules:
- Only use information from the context below
- If the context doesn't contain the answer, politely say you don't have that information
- Be concise but thorough
- Use natural, conversational language
- Cite specific parts of the context when relevant

`

// BuildPrompt assembles rules, prior turns, retrieved context and the question.
func BuildPrompt(question string, matches []entity.ChunkMatch, history []entity.ChatMessage) string {
	var b strings.Builder
	b.WriteString(systemRules)

	if len(history) > 0 {
		b.WriteString("Previous Conversation:\n")
		for i, m := range history {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
		}
		b.WriteString("\n\n")
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Content)
	}
	b.WriteString("Document Context:\n")
	b.WriteString(strings.Join(texts, contextSeparator))

	fmt.Fprintf(&b, "\n\nCurrent Question: %s\n\nAnswer:", question)
	return b.String()
}

func lastTurns(history []entity.ChatMessage, n int) []entity.ChatMessage {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

func citationsFor(matches []entity.ChunkMatch) ([]entity.Citation, []string) {
	citations := make([]entity.Citation, 0, len(matches))
	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		page := m.PageNumber
		similarity := math.Round(m.Similarity*100) / 100
		citations = append(citations, entity.Citation{
			DocName:    m.DocumentName,
			Page:       &page,
			Section:    fmt.Sprintf("Chunk %d", m.ChunkIndex),
			Similarity: &similarity,
		})
		chunks = append(chunks, m.Content)
	}
	return citations, chunks
}
