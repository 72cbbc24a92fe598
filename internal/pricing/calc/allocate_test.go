package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAllocate_SumsBackExactly(t *testing.T) {
	totals := []string{"100.00", "0.01", "99.99", "2100.00", "33.33", "0.10", "1234.56"}
	for _, total := range totals {
		for n := 1; n <= 13; n++ {
			_, amounts := Allocate(dec(total), n)
			require.Len(t, amounts, n)

			sum := decimal.Zero
			for _, a := range amounts {
				sum = sum.Add(a)
			}
			assert.True(t, sum.Equal(dec(total)),
				"total=%s n=%d: parts sum to %s", total, n, sum)
		}
	}
}

func TestAllocate_RemainderGoesToFirstEntries(t *testing.T) {
	perUnit, amounts := Allocate(dec("100.00"), 3)

	assert.True(t, perUnit.Equal(dec("33.33")))
	assert.True(t, amounts[0].Equal(dec("33.34")))
	assert.True(t, amounts[1].Equal(dec("33.33")))
	assert.True(t, amounts[2].Equal(dec("33.33")))
}

func TestAllocate_NegativeRemainder(t *testing.T) {
	// 0.20 / 3 rounds to 0.07 per unit; 3*0.07 = 0.21 overshoots by a cent.
	_, amounts := Allocate(dec("0.20"), 3)

	assert.True(t, amounts[0].Equal(dec("0.06")))
	assert.True(t, amounts[1].Equal(dec("0.07")))
	assert.True(t, amounts[2].Equal(dec("0.07")))
}

func TestAllocate_Deterministic(t *testing.T) {
	perUnit1, amounts1 := Allocate(dec("999.97"), 7)
	perUnit2, amounts2 := Allocate(dec("999.97"), 7)

	assert.True(t, perUnit1.Equal(perUnit2))
	require.Equal(t, len(amounts1), len(amounts2))
	for i := range amounts1 {
		assert.True(t, amounts1[i].Equal(amounts2[i]))
	}
}

func TestAllocate_ZeroOrNegativeCount(t *testing.T) {
	perUnit, amounts := Allocate(dec("50.00"), 0)
	assert.True(t, perUnit.IsZero())
	assert.Empty(t, amounts)

	perUnit, amounts = Allocate(dec("50.00"), -2)
	assert.True(t, perUnit.IsZero())
	assert.Empty(t, amounts)
}

func TestAllocate_EvenSplitHasNoRemainder(t *testing.T) {
	perUnit, amounts := Allocate(dec("120.00"), 4)

	assert.True(t, perUnit.Equal(dec("30.00")))
	for _, a := range amounts {
		assert.True(t, a.Equal(dec("30.00")))
	}
}
