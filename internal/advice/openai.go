package advice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIProvider asks an OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIProvider creates a provider for apiKey. baseURL may be empty to
// use the public OpenAI endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string, logger *slog.Logger) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	logger.Info("Initializing OpenAI advice provider", "model", model)
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Advise sends prompt as a single user message. Every failure is reported
// as ErrUnavailable.
func (p *OpenAIProvider) Advise(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		p.logger.ErrorContext(ctx, "OpenAI API call failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		p.logger.WarnContext(ctx, "OpenAI returned no choices or empty content")
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}
