// Package anthropic adapts the Anthropic Messages API to the backend
// contract.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/ports"
)

// Client wraps the official Anthropic client behind ports.Backend.
type Client struct {
	name    string
	client  anthropic.Client
	logger  *zap.Logger
	timeout time.Duration
}

// NewClient creates an Anthropic backend client.
func NewClient(name, apiKey string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	return &Client{
		name:    name,
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Name implements ports.Backend.
func (c *Client) Name() string { return c.name }

// Complete implements ports.Backend.
func (c *Client) Complete(ctx context.Context, req *ports.CompletionRequest) (*ports.CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.FullPrompt())),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	c.logger.Debug("anthropic completion",
		zap.String("backend", c.name),
		zap.String("model", req.Model),
		zap.Int64("input_tokens", message.Usage.InputTokens),
		zap.Int64("output_tokens", message.Usage.OutputTokens))

	return &ports.CompletionResponse{
		Text:         text,
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}
