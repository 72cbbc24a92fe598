package calc

import (
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
)

var cent = decimal.New(1, -2)

// Allocate splits total across n units so the parts sum back to the total
// exactly. The per-unit value is the banker's-rounded quotient; whatever
// remainder that rounding leaves is redistributed one cent at a time to
// the first entries of the result.
//
// n <= 0 yields (0, empty), not an error.
func Allocate(total decimal.Decimal, n int) (decimal.Decimal, []decimal.Decimal) {
	if n <= 0 {
		return decimal.Zero, []decimal.Decimal{}
	}

	perUnit := money.RoundBank(total.Div(decimal.NewFromInt(int64(n))), 2)
	remainder := total.Sub(perUnit.Mul(decimal.NewFromInt(int64(n))))

	amounts := make([]decimal.Decimal, n)
	for i := range amounts {
		amounts[i] = perUnit
	}

	step := cent
	if remainder.IsNegative() {
		step = cent.Neg()
	}
	k := int(remainder.Abs().Div(cent).IntPart())
	for i := 0; i < k && i < n; i++ {
		amounts[i] = amounts[i].Add(step)
	}

	return perUnit, amounts
}
