package llm

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/pkg/adapters/llm/anthropic"
	"github.com/swellproject/swell/pkg/adapters/llm/openai"
)

// Config holds the credentials and defaults shared by all provider
// clients.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	RequestTimeout  time.Duration
	Logger          *zap.Logger
}

// NewClient creates a provider client for one backend entry.
func NewClient(backend *domain.BackendConfig, cfg *Config) (ports.Backend, error) {
	switch backend.Provider {
	case "anthropic":
		return anthropic.NewClient(backend.Name, cfg.AnthropicAPIKey, cfg.RequestTimeout, cfg.Logger)
	case "openai":
		return openai.NewClient(backend.Name, cfg.OpenAIAPIKey, cfg.RequestTimeout, cfg.Logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", backend.Provider)
	}
}

// NewClients creates provider clients for every enabled backend entry.
func NewClients(backends []*domain.BackendConfig, cfg *Config) (map[string]ports.Backend, error) {
	clients := make(map[string]ports.Backend, len(backends))
	for _, b := range backends {
		if !b.Enabled {
			continue
		}
		client, err := NewClient(b, cfg)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", b.Name, err)
		}
		clients[b.Name] = client
	}
	return clients, nil
}
