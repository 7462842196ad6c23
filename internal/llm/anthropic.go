package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/pkg/config"
)

// AnthropicOracle asks a Claude model to name the department.
type AnthropicOracle struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOracle returns an Anthropic backed oracle, or Disabled when no API key is configured.
func NewOracle(cfg config.ClassifierConfig, logger *zap.Logger) Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Warn("classifier api key missing, using keyword rules only")
		return Disabled
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 50
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AnthropicOracle{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// Suggest sends a single-turn classification prompt. Any failure is reported as ErrUnavailable.
func (o *AnthropicOracle) Suggest(ctx context.Context, text string, departments []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	message, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(o.model),
		MaxTokens:   o.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(text, departments))),
		},
	})
	if err != nil {
		o.logger.Warn("classifier request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			answer := CleanAnswer(block.Text)
			if answer == "" {
				break
			}
			o.logger.Debug("classifier answered",
				zap.String("answer", answer),
				zap.Int64("tokens_in", message.Usage.InputTokens),
				zap.Int64("tokens_out", message.Usage.OutputTokens),
			)
			return answer, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", ErrUnavailable)
}
