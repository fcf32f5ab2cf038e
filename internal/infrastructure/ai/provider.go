package ai

import (
	"fmt"
	"strings"

	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg config.AIConfig, logger *zap.Logger) (assistant.CompletionProvider, error) {
	switch cfg.Provider {
	case "", "stub":
		return NewStubProvider(), nil
	case "openai":
		return NewOpenAIProvider(cfg, logger)
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

// ParsePricing reads "prompt,completion" per-1000-token prices keyed by
// model name. The key "default" sets the price of unlisted models.
func ParsePricing(raw map[string]string) (map[string]assistant.Price, error) {
	prices := make(map[string]assistant.Price, len(raw))
	for model, value := range raw {
		promptStr, completionStr, ok := strings.Cut(value, ",")
		if !ok {
			return nil, fmt.Errorf("ai.pricing.%s: expected \"prompt,completion\", got %q", model, value)
		}
		prompt, err := decimal.NewFromString(strings.TrimSpace(promptStr))
		if err != nil {
			return nil, fmt.Errorf("ai.pricing.%s: invalid prompt price: %w", model, err)
		}
		completion, err := decimal.NewFromString(strings.TrimSpace(completionStr))
		if err != nil {
			return nil, fmt.Errorf("ai.pricing.%s: invalid completion price: %w", model, err)
		}
		if prompt.IsNegative() || completion.IsNegative() {
			return nil, fmt.Errorf("ai.pricing.%s: prices cannot be negative", model)
		}
		prices[model] = assistant.Price{Prompt: prompt, Completion: completion}
	}
	return prices, nil
}

// NewPriceTable combines configured prices with the built-in defaults.
func NewPriceTable(cfg config.AIConfig) (*assistant.PriceTable, error) {
	overrides, err := ParsePricing(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	return assistant.NewPriceTable(overrides), nil
}
