package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.applyDefaults()
	return &cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = retry.DefaultTimeout
	}
	if c.API.Retry == (retry.Policy{}) {
		c.API.Retry = retry.MobilePolicy()
	}

	if c.Gemini.Endpoint == "" {
		c.Gemini.Endpoint = provider.DefaultGeminiEndpoint
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = retry.DefaultTimeout
	}
	if c.Gemini.Retry == (retry.Policy{}) {
		c.Gemini.Retry = retry.GeminiPolicy()
	}

	if c.Credentials.Source == "" {
		c.Credentials.Source = CredentialSourceEnv
	}
	if c.Credentials.EnvKey == "" {
		c.Credentials.EnvKey = "RELAY_SESSION_TOKEN"
	}
	if c.Credentials.Subject == "" {
		c.Credentials.Subject = "default"
	}

	if c.Redis.URL != "" && c.Redis.TokenTTL == 0 {
		c.Redis.TokenTTL = 10 * time.Minute
	}
}

// Validate checks values that defaults cannot fix.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.API.Retry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("api.retry: %w", err))
	}
	if err := c.Gemini.Retry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gemini.retry: %w", err))
	}
	if c.API.Timeout < 0 || c.Gemini.Timeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}

	switch c.Credentials.Source {
	case CredentialSourceEnv:
	case CredentialSourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("credentials.source postgres requires database.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown credentials.source %q", c.Credentials.Source))
	}
	return errors.Join(errs...)
}
