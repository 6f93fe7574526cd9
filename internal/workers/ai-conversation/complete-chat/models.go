// internal/workers/ai-conversation/complete-chat/models.go
package completechat

import (
	"time"

	"asha-assistant/internal/models"
)

// CompletionRequest is one chat-completions call. A zero MaxTokens uses the client
// default; Temperature is always sent as given.
type CompletionRequest struct {
	Messages    []models.ChatMessage
	MaxTokens   int
	Temperature float64
	// JSON asks the provider for a json_object response format.
	JSON  bool
	Model string
}

type DiagnosticsRecorder interface {
	Record(source string, latency time.Duration, ok bool)
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string               `json:"model"`
	Messages       []models.ChatMessage `json:"messages"`
	MaxTokens      int                  `json:"max_tokens"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}
