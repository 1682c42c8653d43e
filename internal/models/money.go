package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols lists the prefixes stripped during price normalization.
// The content backend is inconsistent about whether prices arrive as numbers
// or display strings, so both forms must normalize to the same decimal.
var currencySymbols = []string{"£", "$", "€"}

// ParsePrice normalizes a price value from an upstream payload into a
// decimal amount. It accepts numeric values (float64, int, json.Number) and
// string values with an optional currency-symbol prefix, so "£12.50" and
// 12.5 both yield the same result.
func ParsePrice(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("price is missing")
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return parsePriceString(v)
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported price type %T", value)
	}
}

func parsePriceString(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		trimmed = strings.TrimPrefix(trimmed, sym)
	}
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("price string is empty")
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return d, nil
}

// IsFreePrice reports whether an upstream price value denotes a free event.
// A missing price, an empty string, the literal "Free", or a zero amount all
// count as free.
func IsFreePrice(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || strings.EqualFold(trimmed, "free") {
			return true
		}
	}
	d, err := ParsePrice(value)
	if err != nil {
		return true
	}
	return d.IsZero()
}
