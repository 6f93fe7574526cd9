// internal/workers/ai-conversation/complete-chat/config.go
package completechat

import "time"

// Config holds connection defaults. Temperature is per request, see CompletionRequest.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
	// Kind labels metrics and diagnostics ("chat" or "sentiment").
	Kind string
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:   "https://api.openai.com/v1",
		Model:     "gpt-4o",
		Timeout:   10 * time.Second,
		MaxTokens: 800,
		Kind:      "chat",
	}
}
