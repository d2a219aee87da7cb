package renegotiation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSeries is the reserved series code for records generated by a
// renegotiation, kept distinct from ordinary sales series so generated
// installments are trivially filterable.
const DefaultSeries = "REN"

// flatCadenceDays is the day spacing between installments when no custom
// offset pattern is supplied
const flatCadenceDays = 30

// InstallmentDraft is one dated, numbered installment of a schedule, ready to
// be materialized as a ledger record
type InstallmentDraft struct {
	DocumentNumber    string
	InstallmentNumber int
	DueDate           time.Time
	Value             decimal.Decimal
}

// DraftDocumentNumber derives the document number for one installment of an
// agreement. Numbers are stable, sortable and collision-free within an
// agreement: the agreement ID plus the zero-padded 1-based index.
func DraftDocumentNumber(agreementID uuid.UUID, installmentNumber int) string {
	return fmt.Sprintf("RN-%s-%03d", agreementID, installmentNumber)
}

// BuildSchedule turns a list of installment values into dated drafts.
//
// The first installment is always due at baseDate. With no offsets each
// following installment is due 30 days after the previous one. With offsets,
// each entry is the day gap to the next installment; when fewer offsets than
// needed are supplied the last one is repeated for the remainder.
func BuildSchedule(agreementID uuid.UUID, values []decimal.Decimal, baseDate time.Time, offsets []int) []InstallmentDraft {
	drafts := make([]InstallmentDraft, len(values))

	elapsed := 0
	for i, value := range values {
		if i > 0 {
			elapsed += stepDays(offsets, i-1)
		}
		drafts[i] = InstallmentDraft{
			DocumentNumber:    DraftDocumentNumber(agreementID, i+1),
			InstallmentNumber: i + 1,
			DueDate:           baseDate.AddDate(0, 0, elapsed),
			Value:             value,
		}
	}

	return drafts
}

// stepDays returns the day gap after installment step (0-based)
func stepDays(offsets []int, step int) int {
	if len(offsets) == 0 {
		return flatCadenceDays
	}
	if step < len(offsets) {
		return offsets[step]
	}
	return offsets[len(offsets)-1]
}
