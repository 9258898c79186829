package usecase

import (
	"fmt"
	"strings"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

const (
	DefaultHistoryMessages = 10

	noContextMarker = "No relevant context found."
	sourceSeparator = "\n---\n"
	fallbackSources = 3
	fallbackExcerpt = 500
)

func buildSystemPrompt() string {
	return `You are an AI assistant for venture capital professionals. Your role is to:

1. Provide accurate, data-driven insights for due diligence and portfolio analysis
2. Reference specific sources when citing information
3. Understand VC-specific terminology and frameworks
4. Be concise but thorough in your analysis
5. Highlight key metrics, risks, and opportunities
6. Maintain confidentiality and professionalism

Always base your responses on the provided context and do not rely on outside knowledge.
If you don't have enough information to answer confidently, say so.
Use headings, bullet points and tables where they make the answer easier to scan.`
}

// formatContext renders results as a numbered source block.
func formatContext(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return noContextMarker
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[%s]\n%s\n", sourceLabel(i+1, r), r.Content))
	}
	return strings.Join(parts, sourceSeparator)
}

func sourceLabel(n int, r domain.RetrievalResult) string {
	label := fmt.Sprintf("Source %d: %s", n, r.Metadata.SourceName())
	if r.Similarity > 0 {
		label += fmt.Sprintf(" | Relevance: %.0f%%", r.Similarity*100)
	}
	return label
}

func buildUserTurn(query string, results []domain.RetrievalResult) string {
	return fmt.Sprintf(`Context:
%s

User Query: %s

Please provide a detailed, accurate response based on the context provided. If you reference specific information, cite the source.`,
		formatContext(results), query)
}

// buildMessages assembles the system prompt, the tail of history and the
// context-bearing user turn.
func buildMessages(query string, results []domain.RetrievalResult, history []domain.ChatMessage, historyLimit int) []domain.ChatMessage {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryMessages
	}
	recent := history
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}

	messages := make([]domain.ChatMessage, 0, len(recent)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: buildSystemPrompt()})
	for _, m := range recent {
		messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: buildUserTurn(query, results)})
	return messages
}

// buildFallbackResponse answers without an LLM from the best context entries.
func buildFallbackResponse(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return "I couldn't find any relevant documents for your question. " +
			"Upload files (PDF, text, markdown, CSV or spreadsheets) to this chat or project, " +
			"then ask again so the answer can be grounded in your materials."
	}

	var b strings.Builder
	b.WriteString("The AI model is currently unavailable. Here are the most relevant excerpts from your documents:\n")
	for i, r := range results {
		if i == fallbackSources {
			break
		}
		fmt.Fprintf(&b, "\n**Source %d: %s**\n%s\n", i+1, r.Metadata.SourceName(), excerpt(r.Content, fallbackExcerpt))
	}
	return b.String()
}

func excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
