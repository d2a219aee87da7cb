package renegotiation

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an agreement. The persisted codes
// are single characters for interop with the legacy ledger layout.
type Status string

const (
	StatusActive    Status = "A" // Installments outstanding
	StatusBroken    Status = "Q" // Broken by the operator; open installments cancelled
	StatusSettled   Status = "C" // All installments paid (set externally, never by this engine)
	StatusCancelled Status = "X" // Administrative cancellation (reserved)
)

// IsValid checks if the status is a valid agreement Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusBroken, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusBroken:
		return "BROKEN"
	case StatusSettled:
		return "SETTLED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return string(s)
}

// IsTerminal returns true if the agreement can no longer change status
func (s Status) IsTerminal() bool {
	return s == StatusBroken || s == StatusSettled || s == StatusCancelled
}

// DocumentList is the denormalized list of consolidated source document
// numbers, persisted comma-joined for backward read-compatibility with the
// legacy ledger. The child records' back-references are the authoritative
// relationship; this field is an audit artifact.
type DocumentList []string

// Value implements driver.Valuer, joining the list with commas
func (d DocumentList) Value() (driver.Value, error) {
	return strings.Join(d, ","), nil
}

// Scan implements sql.Scanner for the comma-joined representation
func (d *DocumentList) Scan(value interface{}) error {
	if value == nil {
		*d = DocumentList{}
		return nil
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.New("failed to scan DocumentList: unsupported type")
	}

	if s == "" {
		*d = DocumentList{}
		return nil
	}
	*d = strings.Split(s, ",")
	return nil
}

// Agreement is the consolidated renegotiation aggregate root. It is created
// in one transaction together with the status flip of the consumed records
// and the insertion of the generated installment records; afterwards it is
// append-only except for status, notes and operator.
type Agreement struct {
	shared.TenantAggregateRoot
	Branch           string
	CustomerID       uuid.UUID
	SourceDocuments  DocumentList
	Series           string
	InstallmentCount int
	DueDateBase      time.Time
	OriginalValue    decimal.Decimal
	InterestValue    decimal.Decimal
	InterestPercent  decimal.Decimal
	FineValue        decimal.Decimal
	FinePercent      decimal.Decimal
	DiscountValue    decimal.Decimal
	FinalValue       decimal.Decimal
	Status           Status
	OperatorID       uuid.UUID
	Notes            string
	// ParentID links an agreement whose consolidated sources were themselves
	// generated by an earlier renegotiation. The parent always predates the
	// child, so the lineage is a tree.
	ParentID *uuid.UUID
}

// NewAgreementParams carries the inputs for NewAgreement
type NewAgreementParams struct {
	TenantID         uuid.UUID
	Branch           string
	CustomerID       uuid.UUID
	SourceDocuments  []string
	Series           string
	InstallmentCount int
	DueDateBase      time.Time
	Settlement       Settlement
	InterestValue    decimal.Decimal
	InterestPercent  decimal.Decimal
	FineValue        decimal.Decimal
	FinePercent      decimal.Decimal
	DiscountValue    decimal.Decimal
	OperatorID       uuid.UUID
	Notes            string
	ParentID         *uuid.UUID
}

// NewAgreement creates a new active agreement from consolidated totals.
// A non-positive installment count is corrected to 1, not rejected. A
// discount exceeding the consolidated original total is rejected; the ledger
// never carries a negative settlement.
func NewAgreement(p NewAgreementParams) (*Agreement, error) {
	if p.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(p.SourceDocuments) == 0 {
		return nil, shared.NewDomainError("NO_ELIGIBLE_RECORDS", "At least one source document is required")
	}
	if p.OperatorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Operator ID cannot be empty")
	}
	if p.DiscountValue.GreaterThan(p.Settlement.OriginalTotal) {
		return nil, shared.NewDomainError("DISCOUNT_EXCEEDS_TOTAL",
			fmt.Sprintf("Discount %s exceeds consolidated total %s",
				p.DiscountValue.StringFixed(2), p.Settlement.OriginalTotal.StringFixed(2)))
	}

	count := p.InstallmentCount
	if count <= 0 {
		count = 1
	}
	series := p.Series
	if series == "" {
		series = DefaultSeries
	}

	ag := &Agreement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		Branch:              p.Branch,
		CustomerID:          p.CustomerID,
		SourceDocuments:     DocumentList(p.SourceDocuments),
		Series:              series,
		InstallmentCount:    count,
		DueDateBase:         p.DueDateBase,
		OriginalValue:       p.Settlement.OriginalTotal,
		InterestValue:       p.InterestValue,
		InterestPercent:     p.InterestPercent,
		FineValue:           p.FineValue,
		FinePercent:         p.FinePercent,
		DiscountValue:       p.DiscountValue,
		FinalValue:          p.Settlement.FinalValue,
		Status:              StatusActive,
		OperatorID:          p.OperatorID,
		Notes:               p.Notes,
		ParentID:            p.ParentID,
	}

	ag.AddDomainEvent(NewAgreementCreatedEvent(ag))

	return ag, nil
}

// Break moves an active agreement to the broken state, recording who broke it
// and why. The still-open generated installments are cancelled by the caller
// in the same transaction.
func (a *Agreement) Break(operatorID uuid.UUID, notes string) error {
	if a.Status != StatusActive {
		return shared.NewDomainError("AGREEMENT_NOT_ACTIVE",
			fmt.Sprintf("Cannot break agreement in %s status", a.Status))
	}
	if operatorID == uuid.Nil {
		return shared.NewDomainError("INVALID_OPERATOR", "Operator ID cannot be empty")
	}

	a.Status = StatusBroken
	a.OperatorID = operatorID
	if notes != "" {
		a.Notes = notes
	}
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAgreementBrokenEvent(a))

	return nil
}

// IsActive returns true if the agreement is active
func (a *Agreement) IsActive() bool {
	return a.Status == StatusActive
}

// IsRenegotiation returns true if the agreement descends from an earlier one
func (a *Agreement) IsRenegotiation() bool {
	return a.ParentID != nil
}
