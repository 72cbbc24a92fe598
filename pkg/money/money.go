// Package money provides an exact, currency-aware money value type.
//
// All pricing arithmetic in this codebase goes through Money or raw
// decimal.Decimal values; binary floating point is never used for
// amounts.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic mixes currencies.
var ErrCurrencyMismatch = errors.New("currency_mismatch")

// currencyDecimals maps ISO codes to settlement decimal places.
var currencyDecimals = map[string]int32{
	"USD": 2, "EUR": 2, "GBP": 2, "MXN": 2,
	"CAD": 2, "AUD": 2, "CHF": 2, "CNY": 2,
	"JPY": 0, "KRW": 0,
}

// DefaultCurrency is used when nothing more specific is configured.
const DefaultCurrency = "MXN"

// Money is an immutable amount in a single currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New builds a Money value.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// FromString parses a decimal string into Money.
func FromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns m+other, failing when currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", ErrCurrencyMismatch, other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m-other, failing when currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrCurrencyMismatch, other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// MulInt scales the amount by an integer factor.
func (m Money) MulInt(factor int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(factor)), Currency: m.Currency}
}

// Quantized rounds to the currency's settlement decimals using
// banker's rounding.
func (m Money) Quantized() Money {
	places, ok := currencyDecimals[m.Currency]
	if !ok {
		places = 2
	}
	return Money{Amount: m.Amount.RoundBank(places), Currency: m.Currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}

// RoundBank rounds a bare decimal to the given places with banker's
// rounding. Shared by the allocator and the tier calculators.
func RoundBank(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundBank(places)
}
