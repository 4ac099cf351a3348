package services

import (
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// HistoryWindow is how many recent history turns are considered for
// replay into a generation request.
const HistoryWindow = 8

// ResponseSuffix is appended to every outgoing user message. Fixed in
// content and always present.
const ResponseSuffix = "\n\n[Provide a detailed, comprehensive response]"

// SystemDirective is the standing instruction sent as the leading
// system message of every request.
const SystemDirective = `You are a highly knowledgeable and helpful AI assistant with OCR capabilities. When answering questions:
- Provide comprehensive, detailed explanations
- If OCR text is provided, analyse it thoroughly and answer questions about the content
- Include relevant examples and context
- Break down complex topics into understandable parts
- Use clear structure with logical flow
- Be thorough but concise - elaborate without unnecessary repetition
- If appropriate, provide step-by-step guidance
- Consider multiple perspectives when relevant`

// AssembleContext builds the bounded, role-tagged message sequence for
// a generation request: one leading system message, the replayable
// recent history, and the current input with the response suffix.
//
// The window takes the last HistoryWindow history entries by position
// first, then keeps only chat-kind turns; attachment and extraction
// turns are never replayed verbatim (their derived text is folded into
// currentInput by the caller before assembly). Older chat turns are
// not pulled forward to refill the window.
//
// Deterministic: the same inputs always produce the same sequence.
// history is not mutated.
func AssembleContext(history []domain.Turn, currentInput, systemDirective string) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, HistoryWindow+2)
	messages = append(messages, driven.ChatMessage{
		Role:    "system",
		Content: systemDirective,
	})

	recent := history
	if len(recent) > HistoryWindow {
		recent = recent[len(recent)-HistoryWindow:]
	}

	replayed := 0
	for _, turn := range recent {
		if !turn.IsChat() {
			continue
		}
		messages = append(messages, driven.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
		replayed++
	}
	logger.Debug("context: replayed %d of %d windowed turns (%d total history)",
		replayed, len(recent), len(history))

	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: currentInput + ResponseSuffix,
	})

	return messages
}
