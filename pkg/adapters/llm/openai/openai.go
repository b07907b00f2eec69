// Package openai adapts the OpenAI Chat Completions API to the backend
// contract.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/ports"
)

// Client wraps the official OpenAI client behind ports.Backend.
type Client struct {
	name    string
	client  openai.Client
	logger  *zap.Logger
	timeout time.Duration
}

// NewClient creates an OpenAI backend client.
func NewClient(name, apiKey string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return &Client{
		name:    name,
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
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

	completion, err := c.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.FullPrompt()),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("openai call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	c.logger.Debug("openai completion",
		zap.String("backend", c.name),
		zap.String("model", req.Model),
		zap.Int64("input_tokens", completion.Usage.PromptTokens),
		zap.Int64("output_tokens", completion.Usage.CompletionTokens))

	return &ports.CompletionResponse{
		Text:         completion.Choices[0].Message.Content,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}
