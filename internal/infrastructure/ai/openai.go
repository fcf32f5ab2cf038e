// Package ai connects the assistant to completion providers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIProvider calls the chat completions API of OpenAI or any
// compatible endpoint set through BaseURL.
type OpenAIProvider struct {
	client       openai.Client
	defaultModel string
	logger       *zap.Logger
}

func NewOpenAIProvider(cfg config.AIConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.Model,
		logger:       logger,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, req *assistant.CompletionRequest) (*assistant.Completion, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, errors.New("completion request has no messages")
	}
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case assistant.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case assistant.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			p.logger.Warn("openai request rejected",
				zap.Int("status", apiErr.StatusCode),
				zap.String("model", model),
				zap.Error(err))
		} else {
			p.logger.Warn("openai request failed", zap.String("model", model), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", assistant.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", assistant.ErrProviderUnavailable)
	}

	choice := resp.Choices[0]
	p.logger.Debug("openai completion",
		zap.String("model", resp.Model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)))

	return &assistant.Completion{
		Content:          choice.Message.Content,
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		FinishReason:     string(choice.FinishReason),
	}, nil
}

var _ assistant.CompletionProvider = (*OpenAIProvider)(nil)
