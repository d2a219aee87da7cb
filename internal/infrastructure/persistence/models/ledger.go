package models

import (
	"time"

	"github.com/debtflow/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerRecordModel is the persistence model for accounts-receivable ledger
// records. Column names follow the legacy ledger layout for interop.
type LedgerRecordModel struct {
	BaseModel
	TenantID          uuid.UUID           `gorm:"column:company;type:uuid;not null;index;uniqueIndex:idx_ledger_company_document,priority:1"`
	Branch            string              `gorm:"column:branch;type:varchar(20);not null;index"`
	CustomerID        uuid.UUID           `gorm:"column:customer;type:uuid;not null;index"`
	DocumentNumber    string              `gorm:"column:document_number;type:varchar(50);not null;uniqueIndex:idx_ledger_company_document,priority:2"`
	Series            string              `gorm:"column:series;type:varchar(10);not null;index"`
	InstallmentNumber int                 `gorm:"column:installment_number;not null"`
	IssueDate         time.Time           `gorm:"column:issue_date;not null"`
	DueDate           time.Time           `gorm:"column:due_date;not null;index"`
	Value             decimal.Decimal     `gorm:"column:value;type:decimal(18,4);not null"`
	Status            ledger.RecordStatus `gorm:"column:status;type:varchar(20);not null;default:'OPEN';index"`
	AgreementID       *uuid.UUID          `gorm:"column:agreement_id;type:uuid;index"`
}

// TableName returns the table name for GORM
func (LedgerRecordModel) TableName() string {
	return "ledger_records"
}

// ToDomain converts the persistence model to a domain ledger Record
func (m *LedgerRecordModel) ToDomain() *ledger.Record {
	return &ledger.Record{
		BaseEntity:        m.BaseModel.ToDomain(),
		TenantID:          m.TenantID,
		Branch:            m.Branch,
		CustomerID:        m.CustomerID,
		DocumentNumber:    m.DocumentNumber,
		Series:            m.Series,
		InstallmentNumber: m.InstallmentNumber,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		Value:             m.Value,
		Status:            m.Status,
		AgreementID:       m.AgreementID,
	}
}

// FromDomain populates the persistence model from a domain ledger Record
func (m *LedgerRecordModel) FromDomain(r *ledger.Record) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.Branch = r.Branch
	m.CustomerID = r.CustomerID
	m.DocumentNumber = r.DocumentNumber
	m.Series = r.Series
	m.InstallmentNumber = r.InstallmentNumber
	m.IssueDate = r.IssueDate
	m.DueDate = r.DueDate
	m.Value = r.Value
	m.Status = r.Status
	m.AgreementID = r.AgreementID
}

// LedgerRecordModelFromDomain creates a new persistence model from a domain Record
func LedgerRecordModelFromDomain(r *ledger.Record) *LedgerRecordModel {
	m := &LedgerRecordModel{}
	m.FromDomain(r)
	return m
}
