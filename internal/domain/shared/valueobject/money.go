package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// DefaultCurrency is the currency offices invoice in unless configured otherwise.
const DefaultCurrency Currency = "EUR"

// MoneyPlaces is the number of decimals kept on stored amounts.
const MoneyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// ParseCurrency normalises a currency code. Blank input yields DefaultCurrency.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency code: %s", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid currency code: %s", code)
		}
	}
	return Currency(code), nil
}

// RoundCents rounds half away from zero to MoneyPlaces.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// Percentage returns percent% of amount rounded to cents.
func Percentage(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundCents(amount.Mul(percent).Div(hundred))
}
