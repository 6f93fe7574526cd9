package augmentretrieval

import "time"

type Config struct {
	SourceTimeout time.Duration
	GlobalTimeout time.Duration
	MaxItems      int
}

func LoadConfig() *Config {
	return &Config{
		SourceTimeout: 5 * time.Second,
		GlobalTimeout: 15 * time.Second,
		MaxItems:      5,
	}
}
