// internal/workers/ai-conversation/build-prompt/config.go
package buildprompt

type Config struct {
	HistoryWindow int
}

func LoadConfig() *Config {
	return &Config{
		HistoryWindow: 5,
	}
}
