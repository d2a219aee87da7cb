package renegotiation

import (
	"context"
	"time"

	"github.com/debtflow/backend/internal/domain/ledger"
	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AgreementFilter narrows agreement listings
type AgreementFilter struct {
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
	CustomerID *uuid.UUID
	Status     *Status
	FromDate   *time.Time
	ToDate     *time.Time
}

// DefaultAgreementFilter returns a filter with default pagination
func DefaultAgreementFilter() AgreementFilter {
	f := shared.DefaultFilter()
	return AgreementFilter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
	}
}

// AgreementRepository persists renegotiation agreements
type AgreementRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Agreement, error)

	// FindByIDForUpdate locks the agreement row for the duration of the
	// surrounding transaction
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Agreement, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AgreementFilter) ([]Agreement, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter AgreementFilter) (int64, error)
	Save(ctx context.Context, agreement *Agreement) error
}

// Stores bundles the repositories a renegotiation transaction operates on
type Stores struct {
	Agreements AgreementRepository
	Records    ledger.RecordRepository
}

// UnitOfWork runs a function against transaction-bound stores. The whole
// function commits or rolls back as one; row locks taken inside are held
// until then.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(stores Stores) error) error
}
