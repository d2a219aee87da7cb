package models

import (
	"time"

	"github.com/debtflow/backend/internal/domain/renegotiation"
	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgreementModel is the persistence model for the renegotiation Agreement
// aggregate root. Column names follow the legacy ledger layout for interop.
type AgreementModel struct {
	TenantAggregateModel
	Branch           string                     `gorm:"column:branch;type:varchar(20);not null;index"`
	CustomerID       uuid.UUID                  `gorm:"column:customer;type:uuid;not null;index"`
	SourceDocuments  renegotiation.DocumentList `gorm:"column:source_documents;type:text;not null"`
	Series           string                     `gorm:"column:series;type:varchar(10);not null"`
	InstallmentCount int                        `gorm:"column:installment_count;not null"`
	DueDateBase      time.Time                  `gorm:"column:due_date_base;not null"`
	OriginalValue    decimal.Decimal            `gorm:"column:original_value;type:decimal(18,4);not null"`
	InterestValue    decimal.Decimal            `gorm:"column:interest_value;type:decimal(18,4);not null"`
	InterestPercent  decimal.Decimal            `gorm:"column:interest_percent;type:decimal(9,4);not null"`
	FineValue        decimal.Decimal            `gorm:"column:fine_value;type:decimal(18,4);not null"`
	FinePercent      decimal.Decimal            `gorm:"column:fine_percent;type:decimal(9,4);not null"`
	DiscountValue    decimal.Decimal            `gorm:"column:discount_value;type:decimal(18,4);not null"`
	FinalValue       decimal.Decimal            `gorm:"column:final_value;type:decimal(18,4);not null"`
	Status           renegotiation.Status       `gorm:"column:status;type:char(1);not null;default:'A';index"`
	OperatorID       uuid.UUID                  `gorm:"column:operator;type:uuid;not null"`
	Notes            string                     `gorm:"column:notes;type:text"`
	ParentID         *uuid.UUID                 `gorm:"column:parent_id;type:uuid;index"`
}

// TableName returns the table name for GORM
func (AgreementModel) TableName() string {
	return "agreements"
}

// ToDomain converts the persistence model to a domain Agreement
func (m *AgreementModel) ToDomain() *renegotiation.Agreement {
	a := &renegotiation.Agreement{
		Branch:           m.Branch,
		CustomerID:       m.CustomerID,
		SourceDocuments:  m.SourceDocuments,
		Series:           m.Series,
		InstallmentCount: m.InstallmentCount,
		DueDateBase:      m.DueDateBase,
		OriginalValue:    m.OriginalValue,
		InterestValue:    m.InterestValue,
		InterestPercent:  m.InterestPercent,
		FineValue:        m.FineValue,
		FinePercent:      m.FinePercent,
		DiscountValue:    m.DiscountValue,
		FinalValue:       m.FinalValue,
		Status:           m.Status,
		OperatorID:       m.OperatorID,
		Notes:            m.Notes,
		ParentID:         m.ParentID,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain Agreement
func (m *AgreementModel) FromDomain(a *renegotiation.Agreement) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Branch = a.Branch
	m.CustomerID = a.CustomerID
	m.SourceDocuments = a.SourceDocuments
	m.Series = a.Series
	m.InstallmentCount = a.InstallmentCount
	m.DueDateBase = a.DueDateBase
	m.OriginalValue = a.OriginalValue
	m.InterestValue = a.InterestValue
	m.InterestPercent = a.InterestPercent
	m.FineValue = a.FineValue
	m.FinePercent = a.FinePercent
	m.DiscountValue = a.DiscountValue
	m.FinalValue = a.FinalValue
	m.Status = a.Status
	m.OperatorID = a.OperatorID
	m.Notes = a.Notes
	m.ParentID = a.ParentID
}

// AgreementModelFromDomain creates a new persistence model from a domain Agreement
func AgreementModelFromDomain(a *renegotiation.Agreement) *AgreementModel {
	m := &AgreementModel{}
	m.FromDomain(a)
	return m
}

var _ shared.Entity = (*renegotiation.Agreement)(nil)
