package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the swell orchestrator.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"SWELL_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"SWELL_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend registry document
	RegistryPath string `env:"SWELL_REGISTRY_PATH" envDefault:"registry.yaml"`

	// Event bus configuration
	Events EventsConfig

	// Redis configuration (used when the redis event bus is selected)
	Redis RedisConfig

	// LLM provider configuration
	LLM LLMConfig

	// Executor configuration
	Executor ExecutorConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// EventsConfig selects the event bus implementation.
type EventsConfig struct {
	Provider string `env:"SWELL_EVENTS_PROVIDER" envDefault:"memory"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// LLMConfig holds provider credentials and call defaults.
type LLMConfig struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`

	RequestTimeout     time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"120s"`
	DefaultTemperature float64       `env:"LLM_DEFAULT_TEMPERATURE" envDefault:"0.7"`
	DefaultMaxTokens   int           `env:"LLM_DEFAULT_MAX_TOKENS" envDefault:"4096"`
}

// ExecutorConfig holds retry and escalation settings.
type ExecutorConfig struct {
	MaxRetries        int           `env:"EXECUTOR_MAX_RETRIES" envDefault:"3"`
	RetryBaseDelay    time.Duration `env:"EXECUTOR_RETRY_BASE_DELAY" envDefault:"1s"`
	EscalationEnabled bool          `env:"EXECUTOR_ESCALATION_ENABLED" envDefault:"true"`
}

// TimeoutConfig holds orchestration-level timeouts.
type TimeoutConfig struct {
	OrchestrationTimeout time.Duration `env:"TIMEOUT_ORCHESTRATION" envDefault:"1800s"`
	ShutdownTimeout      time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	if c.RegistryPath == "" {
		return fmt.Errorf("registry path is required")
	}

	switch c.Events.Provider {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis event bus")
		}
	default:
		return fmt.Errorf("unsupported events provider: %s (must be memory or redis)", c.Events.Provider)
	}

	if c.Executor.MaxRetries < 1 {
		return fmt.Errorf("executor max retries must be at least 1")
	}
	if c.Executor.RetryBaseDelay <= 0 {
		return fmt.Errorf("executor retry base delay must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
