package copilot

import (
	"strings"

	"dev.copilot.gateway/internal/models"
)

// BuildPrompt flattens a message history into the single prompt string
// the CLI accepts via -p. Messages with roles other than system, user
// or assistant carry no prompt text and are dropped.
func BuildPrompt(messages []models.ChatMessage) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			parts = append(parts, "System instructions: "+msg.Content)
		case models.RoleUser:
			parts = append(parts, "User: "+msg.Content)
		case models.RoleAssistant:
			parts = append(parts, "Assistant: "+msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// countWords approximates token usage by whitespace-separated words.
func countWords(s string) int {
	return len(strings.Fields(s))
}
