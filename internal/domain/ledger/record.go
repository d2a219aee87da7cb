package ledger

import (
	"time"

	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordStatus represents the status of a ledger record
type RecordStatus string

const (
	RecordStatusOpen         RecordStatus = "OPEN"         // Outstanding, eligible for payment or renegotiation
	RecordStatusRenegotiated RecordStatus = "RENEGOTIATED" // Consumed by a renegotiation agreement
	RecordStatusSettled      RecordStatus = "SETTLED"      // Fully paid
	RecordStatusCancelled    RecordStatus = "CANCELLED"    // Voided, never to be collected
)

// IsValid checks if the status is a valid RecordStatus
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusOpen, RecordStatusRenegotiated, RecordStatusSettled, RecordStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RecordStatus
func (s RecordStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the record can no longer change status
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusRenegotiated || s == RecordStatusSettled || s == RecordStatusCancelled
}

// Record represents one receivable installment in the accounts-receivable
// ledger. Records generated by an agreement, and records consumed by one,
// carry the agreement ID as a back-reference; that link is the authoritative
// parent/child relationship.
type Record struct {
	shared.BaseEntity
	TenantID          uuid.UUID
	Branch            string
	CustomerID        uuid.UUID
	DocumentNumber    string
	Series            string
	InstallmentNumber int
	IssueDate         time.Time
	DueDate           time.Time
	Value             decimal.Decimal
	Status            RecordStatus
	AgreementID       *uuid.UUID
}

// NewRecord creates a new open ledger record
func NewRecord(
	tenantID uuid.UUID,
	branch string,
	customerID uuid.UUID,
	documentNumber string,
	series string,
	installmentNumber int,
	issueDate time.Time,
	dueDate time.Time,
	value decimal.Decimal,
) (*Record, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if series == "" {
		return nil, shared.NewDomainError("INVALID_SERIES", "Series cannot be empty")
	}
	if installmentNumber < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_NUMBER", "Installment number must be at least 1")
	}

	return &Record{
		BaseEntity:        shared.NewBaseEntity(),
		TenantID:          tenantID,
		Branch:            branch,
		CustomerID:        customerID,
		DocumentNumber:    documentNumber,
		Series:            series,
		InstallmentNumber: installmentNumber,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		Value:             value,
		Status:            RecordStatusOpen,
	}, nil
}

// IsOpen returns true if the record is still outstanding
func (r *Record) IsOpen() bool {
	return r.Status == RecordStatusOpen
}

// MarkRenegotiated flips an open record to renegotiated, pointing it at the
// agreement that consumed it
func (r *Record) MarkRenegotiated(agreementID uuid.UUID) error {
	if r.Status != RecordStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open records can be renegotiated")
	}
	r.Status = RecordStatusRenegotiated
	r.AgreementID = &agreementID
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel voids an open record
func (r *Record) Cancel() error {
	if r.Status != RecordStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open records can be cancelled")
	}
	r.Status = RecordStatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}
