package renegotiation

import (
	"github.com/shopspring/decimal"
)

// Settlement holds the consolidated totals of a renegotiation
type Settlement struct {
	OriginalTotal decimal.Decimal
	FinalValue    decimal.Decimal
}

var (
	oneCent = decimal.New(1, -2)
	hundred = decimal.NewFromInt(100)
)

// Consolidate sums the source record values and applies the negotiated
// adjustments. The result is not floored at zero; whether a negative final
// value is acceptable is decided by the caller.
func Consolidate(sourceValues []decimal.Decimal, interest, fine, discount decimal.Decimal) Settlement {
	total := decimal.Zero
	for _, v := range sourceValues {
		total = total.Add(v)
	}
	return Settlement{
		OriginalTotal: total,
		FinalValue:    total.Add(interest).Add(fine).Sub(discount),
	}
}

// Split divides finalValue into count installments of two decimal places that
// sum exactly to finalValue. The base share is the value divided by count,
// truncated to cents; leftover cents go one each to the earliest installments.
// The distribution order is a fixed contract: historically generated
// installment amounts must never change retroactively.
//
// A non-positive count is treated as 1. Negative values flow through with the
// same guarantees.
func Split(finalValue decimal.Decimal, count int) []decimal.Decimal {
	if count <= 0 {
		count = 1
	}

	n := decimal.NewFromInt(int64(count))
	base := finalValue.Div(n).RoundDown(2)

	parts := make([]decimal.Decimal, count)
	for i := range parts {
		parts[i] = base
	}

	remainderCents := finalValue.Sub(base.Mul(n)).Mul(hundred).Round(0).IntPart()
	for i := 0; i < count && int64(i) < remainderCents; i++ {
		parts[i] = parts[i].Add(oneCent)
	}

	// Absorb any residual drift into the last installment so the sum
	// invariant holds for every input, truncation direction included.
	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(p)
	}
	if drift := finalValue.Sub(sum); !drift.IsZero() {
		parts[count-1] = parts[count-1].Add(drift)
	}

	return parts
}
