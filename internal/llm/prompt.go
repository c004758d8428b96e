package llm

import "strings"

// SplitSystem separates leading system messages from the rest. Providers
// whose APIs take the system prompt as a separate field use this.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	i := 0
	for ; i < len(messages) && messages[i].Role == RoleSystem; i++ {
		system = append(system, messages[i].Content)
	}
	return strings.Join(system, "\n\n"), messages[i:]
}

// EstimateTokens approximates a token count as whitespace-separated words
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}
