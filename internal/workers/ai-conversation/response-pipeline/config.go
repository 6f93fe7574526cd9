// internal/workers/ai-conversation/response-pipeline/config.go
package responsepipeline

import (
	"time"

	"asha-assistant/internal/common/retry"
)

type Config struct {
	RepeatWindow     time.Duration
	RepeatCapacity   int
	FailureThreshold int
	SessionCapacity  int
	MaxTokens        int
	Temperature      float64
	Retry            retry.Policy
}

func LoadConfig() *Config {
	return &Config{
		RepeatWindow:     10 * time.Minute,
		RepeatCapacity:   100,
		FailureThreshold: 3,
		SessionCapacity:  1000,
		MaxTokens:        800,
		Temperature:      0.7,
		Retry:            retry.DefaultPolicy(),
	}
}
