// internal/workers/ai-conversation/analyze-sentiment/config.go
package analyzesentiment

import "time"

type Config struct {
	Timeout   time.Duration
	MaxTokens int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   5 * time.Second,
		MaxTokens: 100,
	}
}
