// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Store     StoreConfig     `mapstructure:"store"`
	Events    EventsConfig    `mapstructure:"events"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// Enabled reports whether a search cluster is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Pipeline Configuration ---

// LLMConfig configures the OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL            string  `mapstructure:"base_url"`
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	SentimentModel     string  `mapstructure:"sentiment_model"`
	ChatTimeout        int     `mapstructure:"chat_timeout"`      // milliseconds
	SentimentTimeout   int     `mapstructure:"sentiment_timeout"` // milliseconds
	MaxTokens          int     `mapstructure:"max_tokens"`
	SentimentMaxTokens int     `mapstructure:"sentiment_max_tokens"`
	Temperature        float64 `mapstructure:"temperature"`
}

// SourceConfig describes one live retrieval source.
type SourceConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"` // json | bls
	URL      string `mapstructure:"url"`
	Disabled bool   `mapstructure:"disabled"`
}

type RetrievalConfig struct {
	CacheBackend  string         `mapstructure:"cache_backend"` // memory | redis
	CacheTTL      int            `mapstructure:"cache_ttl"`     // milliseconds
	CacheCapacity int            `mapstructure:"cache_capacity"`
	SourceTimeout int            `mapstructure:"source_timeout"` // milliseconds
	GlobalTimeout int            `mapstructure:"global_timeout"` // milliseconds
	MaxItems      int            `mapstructure:"max_items"`
	Sources       []SourceConfig `mapstructure:"sources"`
}

type PipelineConfig struct {
	HistoryWindow    int `mapstructure:"history_window"`
	RepeatWindow     int `mapstructure:"repeat_window"` // milliseconds
	RepeatCapacity   int `mapstructure:"repeat_capacity"`
	FailureThreshold int `mapstructure:"failure_threshold"`
	SessionCapacity  int `mapstructure:"session_capacity"`
}

type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelay   int `mapstructure:"base_delay"` // milliseconds
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // memory | postgres
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type EventsConfig struct {
	Driver        string `mapstructure:"driver"` // log | nats | sns | none
	NATSURL       string `mapstructure:"nats_url"`
	NATSToken     string `mapstructure:"nats_token"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	SNSTopicARN   string `mapstructure:"sns_topic_arn"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSEndpoint   string `mapstructure:"aws_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
