// internal/workers/ai-conversation/build-prompt/models.go
package buildprompt

import "asha-assistant/internal/models"

// Prompt is the message list sent to the completion provider. Messages[0] is always the
// system message carrying SystemPrompt.
type Prompt struct {
	SystemPrompt string               `json:"systemPrompt"`
	Messages     []models.ChatMessage `json:"messages"`
}
