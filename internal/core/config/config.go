package config

import (
	"time"

	redisclient "github.com/vietddude/relay/internal/infra/redis"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
	"github.com/vietddude/relay/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	API         APIConfig          `yaml:"api"`
	Gemini      GeminiConfig       `yaml:"gemini"`
	Credentials CredentialConfig   `yaml:"credentials"`
	Redis       redisclient.Config `yaml:"redis"`
	Logging     LoggingConfig      `yaml:"logging"`
	Database    postgres.Config    `yaml:"database"`
}

// ServerConfig holds the metrics/health server settings.
type ServerConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// APIConfig holds settings for the backend REST API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
	Retry     retry.Policy  `yaml:"retry"`
}

// GeminiConfig holds settings for the content generation provider.
type GeminiConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    retry.Policy  `yaml:"retry"`
}

// CredentialSource selects where bearer tokens come from.
type CredentialSource string

const (
	CredentialSourceEnv      CredentialSource = "env"
	CredentialSourcePostgres CredentialSource = "postgres"
)

// CredentialConfig holds settings for resolving the session token.
type CredentialConfig struct {
	Source  CredentialSource `yaml:"source"`
	EnvKey  string           `yaml:"env_key"`
	Subject string           `yaml:"subject"`
}
