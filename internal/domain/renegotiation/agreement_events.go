package renegotiation

import (
	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgreementCreatedEvent is raised when a renegotiation agreement is created
type AgreementCreatedEvent struct {
	shared.BaseDomainEvent
	AgreementIDValue uuid.UUID       `json:"agreement_id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	SourceDocuments  []string        `json:"source_documents"`
	InstallmentCount int             `json:"installment_count"`
	OriginalValue    decimal.Decimal `json:"original_value"`
	FinalValue       decimal.Decimal `json:"final_value"`
	ParentID         *uuid.UUID      `json:"parent_id,omitempty"`
}

// EventType returns the event type name
func (e *AgreementCreatedEvent) EventType() string {
	return "RenegotiationAgreementCreated"
}

// NewAgreementCreatedEvent creates a new AgreementCreatedEvent
func NewAgreementCreatedEvent(a *Agreement) *AgreementCreatedEvent {
	return &AgreementCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("RenegotiationAgreementCreated", "Agreement", a.ID, a.TenantID),
		AgreementIDValue: a.ID,
		CustomerID:       a.CustomerID,
		SourceDocuments:  a.SourceDocuments,
		InstallmentCount: a.InstallmentCount,
		OriginalValue:    a.OriginalValue,
		FinalValue:       a.FinalValue,
		ParentID:         a.ParentID,
	}
}

// AgreementBrokenEvent is raised when an active agreement is broken
type AgreementBrokenEvent struct {
	shared.BaseDomainEvent
	AgreementIDValue uuid.UUID `json:"agreement_id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	OperatorID       uuid.UUID `json:"operator_id"`
	Notes            string    `json:"notes,omitempty"`
}

// EventType returns the event type name
func (e *AgreementBrokenEvent) EventType() string {
	return "RenegotiationAgreementBroken"
}

// NewAgreementBrokenEvent creates a new AgreementBrokenEvent
func NewAgreementBrokenEvent(a *Agreement) *AgreementBrokenEvent {
	return &AgreementBrokenEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("RenegotiationAgreementBroken", "Agreement", a.ID, a.TenantID),
		AgreementIDValue: a.ID,
		CustomerID:       a.CustomerID,
		OperatorID:       a.OperatorID,
		Notes:            a.Notes,
	}
}
