/*
calc.go - Share/tax/payable derivation

PURPOSE:
  Pure computation of the derived money triple from a base amount and two
  percentages. No side effects, no store access, deterministic: identical
  inputs always produce identical outputs.

COMPUTATION:
  shareAmount  = base * sharePercent / 100   (rounded)
  taxDeducted  = share * taxPercent / 100    (rounded)
  finalPayable = shareAmount - taxDeducted   (exact difference)

ROUNDING:
  Round-half-even at 2 decimal places, applied exactly once per derived
  field. finalPayable is the exact difference of the two already-rounded
  values, so the conservation invariant
      finalPayable == shareAmount - taxDeducted
  holds bit-exactly, not just within tolerance.

SEE ALSO:
  - service.go: SubmitReview is the only caller that persists results
*/
package incentive

import (
	"math"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of decimal places kept on derived amounts.
const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// ShareBreakdown is the derived money triple produced by ComputeShare.
type ShareBreakdown struct {
	ShareAmount  Money
	TaxDeducted  Money
	FinalPayable Money
}

// ComputeShare derives the share, tax, and payable amounts from a base
// amount and two percentages. Percentages must be in [0, 100] and the base
// must be non-negative; anything else is ErrInvalidInput and nothing is
// computed.
func ComputeShare(base Money, sharePercent, taxPercent decimal.Decimal) (ShareBreakdown, error) {
	if base.IsNegative() {
		return ShareBreakdown{}, &InputError{Field: "baseAmount", Reason: "must not be negative"}
	}
	if err := validatePercent("sharePercent", sharePercent); err != nil {
		return ShareBreakdown{}, err
	}
	if err := validatePercent("taxPercent", taxPercent); err != nil {
		return ShareBreakdown{}, err
	}

	share := base.Mul(sharePercent).Div(hundred).Round(moneyScale)
	tax := share.Mul(taxPercent).Div(hundred).Round(moneyScale)
	payable := share.Sub(tax)

	return ShareBreakdown{
		ShareAmount:  share,
		TaxDeducted:  tax,
		FinalPayable: payable,
	}, nil
}

func validatePercent(field string, p decimal.Decimal) error {
	if p.IsNegative() {
		return &InputError{Field: field, Reason: "must not be negative"}
	}
	if p.GreaterThan(hundred) {
		return &InputError{Field: field, Reason: "must not exceed 100"}
	}
	return nil
}

// ParsePercent converts a caller-supplied float into a decimal percentage,
// rejecting NaN and infinities before they can poison the arithmetic.
// decimal.NewFromFloat panics on non-finite values, so the check has to
// happen here at the boundary.
func ParsePercent(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, &InputError{Field: field, Reason: "must be a finite number"}
	}
	return decimal.NewFromFloat(v), nil
}

// ParseMoney converts a caller-supplied float into a Money value with the
// same finiteness guard as ParsePercent.
func ParseMoney(field string, v float64, currency Currency) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, &InputError{Field: field, Reason: "must be a finite number"}
	}
	return NewMoney(v, currency), nil
}
