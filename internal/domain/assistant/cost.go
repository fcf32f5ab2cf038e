package assistant

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// EstimateTokens approximates the token count of text as one token per four
// runes, rounded up. Non-empty text counts as at least one token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// Price is the cost per 1000 tokens.
type Price struct {
	Prompt     decimal.Decimal
	Completion decimal.Decimal
}

var thousand = decimal.NewFromInt(1000)

// Cost computes the price of a call.
func (p Price) Cost(promptTokens, completionTokens int) decimal.Decimal {
	prompt := p.Prompt.Mul(decimal.NewFromInt(int64(promptTokens)))
	completion := p.Completion.Mul(decimal.NewFromInt(int64(completionTokens)))
	return prompt.Add(completion).Div(thousand).Round(6)
}

// PriceTable maps model names to prices.
type PriceTable struct {
	models   map[string]Price
	fallback Price
}

// DefaultPrices are used when configuration does not list a model.
var DefaultPrices = map[string]Price{
	"gpt-4o":        {Prompt: decimal.RequireFromString("0.0025"), Completion: decimal.RequireFromString("0.01")},
	"gpt-4o-mini":   {Prompt: decimal.RequireFromString("0.00015"), Completion: decimal.RequireFromString("0.0006")},
	"gpt-4.1":       {Prompt: decimal.RequireFromString("0.002"), Completion: decimal.RequireFromString("0.008")},
	"gpt-4.1-mini":  {Prompt: decimal.RequireFromString("0.0004"), Completion: decimal.RequireFromString("0.0016")},
	"gpt-3.5-turbo": {Prompt: decimal.RequireFromString("0.0005"), Completion: decimal.RequireFromString("0.0015")},
}

// DefaultPrice applies to models missing from the table.
var DefaultPrice = Price{Prompt: decimal.RequireFromString("0.0025"), Completion: decimal.RequireFromString("0.01")}

// NewPriceTable merges overrides on top of DefaultPrices. Model names are
// matched case-insensitively.
func NewPriceTable(overrides map[string]Price) *PriceTable {
	t := &PriceTable{models: make(map[string]Price, len(DefaultPrices)+len(overrides)), fallback: DefaultPrice}
	for k, v := range DefaultPrices {
		t.models[strings.ToLower(k)] = v
	}
	for k, v := range overrides {
		if strings.EqualFold(k, "default") {
			t.fallback = v
			continue
		}
		t.models[strings.ToLower(k)] = v
	}
	return t
}

// PriceFor returns the price of a model, or the fallback price.
func (t *PriceTable) PriceFor(model string) Price {
	if p, ok := t.models[strings.ToLower(strings.TrimSpace(model))]; ok {
		return p
	}
	return t.fallback
}

// EstimateCost prices a completion call for model.
func (t *PriceTable) EstimateCost(model string, promptTokens, completionTokens int) decimal.Decimal {
	if promptTokens < 0 {
		promptTokens = 0
	}
	if completionTokens < 0 {
		completionTokens = 0
	}
	return t.PriceFor(model).Cost(promptTokens, completionTokens)
}
