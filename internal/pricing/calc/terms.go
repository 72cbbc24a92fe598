package calc

import (
	"encoding/json"
	"fmt"

	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/shopspring/decimal"
)

// Contract terms arrive as a JSON map, so numbers may be strings,
// json.Number, or float64 depending on who wrote them. Amounts are
// expected as strings to avoid binary float drift, but the lenient
// forms are accepted and normalized.

func termMap(terms map[string]any, key string) (map[string]any, error) {
	raw, ok := terms[key]
	if !ok {
		return nil, fmt.Errorf("%w: terms missing %q", domain.ErrConfiguration, key)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: terms %q is not an object", domain.ErrConfiguration, key)
	}
	return m, nil
}

func termDecimal(m map[string]any, key string) (decimal.Decimal, error) {
	raw, ok := m[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: terms missing %q", domain.ErrConfiguration, key)
	}
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: terms %q: %v", domain.ErrConfiguration, key, err)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: terms %q: %v", domain.ErrConfiguration, key, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: terms %q has unsupported type %T", domain.ErrConfiguration, key, raw)
	}
}

func termInt(m map[string]any, key string) (int, error) {
	d, err := termDecimal(m, key)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: terms %q must be an integer", domain.ErrConfiguration, key)
	}
	return int(d.IntPart()), nil
}

func termString(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: terms missing %q", domain.ErrConfiguration, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: terms %q is not a string", domain.ErrConfiguration, key)
	}
	return s, nil
}
