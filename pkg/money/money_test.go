package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundBank_HalfEven(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.125", "0.12"},
		{"0.135", "0.14"},
		{"0.145", "0.14"},
		{"0.155", "0.16"},
		{"450.005", "450"},
		{"450.015", "450.02"},
	}
	for _, tc := range cases {
		d := decimal.RequireFromString(tc.in)
		assert.True(t, RoundBank(d, 2).Equal(decimal.RequireFromString(tc.want)),
			"RoundBank(%s) = %s, want %s", tc.in, RoundBank(d, 2), tc.want)
	}
}

func TestMoney_CheckedArithmetic(t *testing.T) {
	a := New(decimal.RequireFromString("19.99"), "USD")
	b := New(decimal.RequireFromString("1.60"), "USD")

	sum, err := a.Add(b)
	assert.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("21.59")))

	diff, err := a.Sub(b)
	assert.NoError(t, err)
	assert.True(t, diff.Amount.Equal(decimal.RequireFromString("18.39")))

	_, err = a.Add(New(decimal.Zero, "MXN"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = a.Sub(New(decimal.Zero, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_QuantizedPerCurrency(t *testing.T) {
	usd := New(decimal.RequireFromString("10.005"), "USD").Quantized()
	assert.Equal(t, "10", usd.Amount.String())

	jpy := New(decimal.RequireFromString("100.4"), "JPY").Quantized()
	assert.Equal(t, "100", jpy.Amount.String())

	unknown := New(decimal.RequireFromString("1.2345"), "XDC").Quantized()
	assert.Equal(t, "1.23", unknown.Amount.String())
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, Zero("MXN").IsZero())
	assert.True(t, New(decimal.NewFromInt(1), "MXN").IsPositive())
	assert.True(t, New(decimal.NewFromInt(-1), "MXN").IsNegative())
	assert.Equal(t, "3 MXN", New(decimal.NewFromInt(1), "MXN").MulInt(3).String())
}
