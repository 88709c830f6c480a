package memory

import (
	"encoding/json"
	"fmt"
)

// SerializeForPrompt renders the context as indented JSON for the planner.
func SerializeForPrompt(ctx *AgentContext) (string, error) {
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize context: %w", err)
	}
	return string(data), nil
}

// EstimateTokens approximates token count from character count. Close enough
// for budget accounting against the planner's working window.
func EstimateTokens(s string) int {
	return len(s) / 4
}
