// Package conversation keeps per-session message history and assembles the
// prompts sent to the language model.
package conversation

import (
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
)

// MapRole maps a stored sender role to the model role it is replayed as.
// An unknown role is a programming error and panics.
func MapRole(role domain.SenderRole) string {
	switch role {
	case domain.SenderExternalUser, domain.SenderVendor, domain.SenderAdmin:
		return llm.RoleUser
	case domain.SenderChatbot:
		return llm.RoleAssistant
	default:
		panic(fmt.Sprintf("conversation: unknown sender role %q", role))
	}
}

// FinalQuestion prefixes the question with the retrieved context, if any
func FinalQuestion(question, context string) string {
	if context == "" {
		return question
	}
	return "Context:\n" + context + "\n\nQuestion:\n" + question
}

// TrimHistory keeps the most recent messages whose token counts fit in
// budget. A budget of zero or less keeps everything.
func TrimHistory(history []domain.Message, budget int) []domain.Message {
	if budget <= 0 {
		return history
	}
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		tokens := history[i].TokenCount
		if tokens == 0 {
			tokens = llm.EstimateTokens(history[i].Content)
		}
		if used+tokens > budget {
			break
		}
		used += tokens
		start = i
	}
	return history[start:]
}

// AssemblePrompt returns the system message, the prior turns in order and
// the new question. History beyond the token budget is dropped oldest first.
func AssemblePrompt(systemPrompt string, history []domain.Message, question, context string, budget int) []llm.Message {
	kept := TrimHistory(history, budget)

	messages := make([]llm.Message, 0, len(kept)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range kept {
		messages = append(messages, llm.Message{Role: MapRole(m.SenderRole), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: FinalQuestion(question, context)})
	return messages
}
