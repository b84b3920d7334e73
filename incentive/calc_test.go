package incentive_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/incentive-engine/incentive"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func inr(v float64) incentive.Money {
	return incentive.NewMoney(v, incentive.CurrencyINR)
}

func pct(v string) decimal.Decimal {
	return incentive.MustParseDecimal(v)
}

// =============================================================================
// DERIVATION TESTS
// =============================================================================

func TestComputeShare_HappyPath(t *testing.T) {
	// GIVEN: 100000 base, 60% share, 10% tax
	// WHEN: Computing the breakdown
	bd, err := incentive.ComputeShare(inr(100000), pct("60"), pct("10"))
	require.NoError(t, err)

	// THEN: 60000 share, 6000 tax, 54000 payable
	assert.True(t, bd.ShareAmount.Equal(inr(60000)), "share = %s", bd.ShareAmount.Value)
	assert.True(t, bd.TaxDeducted.Equal(inr(6000)), "tax = %s", bd.TaxDeducted.Value)
	assert.True(t, bd.FinalPayable.Equal(inr(54000)), "payable = %s", bd.FinalPayable.Value)
}

func TestComputeShare_Deterministic(t *testing.T) {
	// Calling twice with identical inputs yields bit-identical results.
	a, err := incentive.ComputeShare(inr(123456.78), pct("33.33"), pct("7.5"))
	require.NoError(t, err)
	b, err := incentive.ComputeShare(inr(123456.78), pct("33.33"), pct("7.5"))
	require.NoError(t, err)

	assert.Equal(t, a.ShareAmount.Value.String(), b.ShareAmount.Value.String())
	assert.Equal(t, a.TaxDeducted.Value.String(), b.TaxDeducted.Value.String())
	assert.Equal(t, a.FinalPayable.Value.String(), b.FinalPayable.Value.String())
}

func TestComputeShare_Conservation(t *testing.T) {
	// finalPayable == shareAmount - taxDeducted exactly, for awkward inputs too.
	cases := []struct {
		base       float64
		share, tax string
	}{
		{100000, "60", "10"},
		{99999.99, "33.33", "18.5"},
		{0.01, "1", "99.99"},
		{1, "0.01", "0.01"},
		{7777777.77, "12.34", "5.55"},
	}
	for _, c := range cases {
		bd, err := incentive.ComputeShare(inr(c.base), pct(c.share), pct(c.tax))
		require.NoError(t, err)
		assert.True(t, bd.FinalPayable.Equal(bd.ShareAmount.Sub(bd.TaxDeducted)),
			"base=%v share=%s tax=%s", c.base, c.share, c.tax)
	}
}

func TestComputeShare_RoundHalfEven(t *testing.T) {
	// 100.25% of nothing - pick values that land exactly on a half cent.
	// 0.125 share of 100 = 0.125 -> rounds to 0.12 (banker's), not 0.13.
	bd, err := incentive.ComputeShare(inr(100), pct("0.125"), pct("0"))
	require.NoError(t, err)
	assert.Equal(t, "0.12", bd.ShareAmount.Value.String())

	// 0.135 -> rounds to 0.14 (nearest even digit).
	bd, err = incentive.ComputeShare(inr(100), pct("0.135"), pct("0"))
	require.NoError(t, err)
	assert.Equal(t, "0.14", bd.ShareAmount.Value.String())
}

func TestComputeShare_Boundaries(t *testing.T) {
	// 0 and 100 are both inclusive.
	bd, err := incentive.ComputeShare(inr(100000), pct("100"), pct("100"))
	require.NoError(t, err)
	assert.True(t, bd.ShareAmount.Equal(inr(100000)))
	assert.True(t, bd.TaxDeducted.Equal(inr(100000)))
	assert.True(t, bd.FinalPayable.IsZero())

	bd, err = incentive.ComputeShare(inr(100000), pct("0"), pct("0"))
	require.NoError(t, err)
	assert.True(t, bd.ShareAmount.IsZero())
	assert.True(t, bd.FinalPayable.IsZero())
}

// =============================================================================
// RANGE REJECTION TESTS
// =============================================================================

func TestComputeShare_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		base  incentive.Money
		share decimal.Decimal
		tax   decimal.Decimal
	}{
		{"negative share percent", inr(100000), pct("-1"), pct("10")},
		{"share percent above 100", inr(100000), pct("101"), pct("10")},
		{"negative tax percent", inr(100000), pct("60"), pct("-0.01")},
		{"tax percent above 100", inr(100000), pct("60"), pct("100.01")},
		{"negative base", inr(-1), pct("60"), pct("10")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := incentive.ComputeShare(tt.base, tt.share, tt.tax)
			require.Error(t, err)
			assert.ErrorIs(t, err, incentive.ErrInvalidInput)
		})
	}
}

func TestParsePercent_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := incentive.ParsePercent("tax_percent", v)
		require.Error(t, err)
		assert.ErrorIs(t, err, incentive.ErrInvalidInput)
	}

	// Finite values pass through.
	d, err := incentive.ParsePercent("tax_percent", 12.5)
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.String())
}

func TestParseMoney_RejectsNonFinite(t *testing.T) {
	_, err := incentive.ParseMoney("gross", math.NaN(), incentive.CurrencyINR)
	require.Error(t, err)
	assert.ErrorIs(t, err, incentive.ErrInvalidInput)

	var ie *incentive.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "gross", ie.Field)
}
