package ledger

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository provides access to the accounts-receivable ledger.
//
// The locking read and the batch mutations are only meaningful inside a
// transaction; callers obtain a transaction-bound instance through the
// renegotiation unit of work.
type RecordRepository interface {
	// FindOpenByIDsForUpdate reads all open records among the given IDs and
	// locks them for the duration of the surrounding transaction. Locks are
	// acquired in ascending record-ID order regardless of input order.
	FindOpenByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Record, error)

	// FindByAgreement returns all records generated by an agreement, ordered
	// by installment number
	FindByAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) ([]Record, error)

	// FindByAgreementForUpdate is FindByAgreement with row locks, acquired in
	// ascending record-ID order
	FindByAgreementForUpdate(ctx context.Context, tenantID, agreementID uuid.UUID) ([]Record, error)

	// FindOpenByCustomer returns all open records for a customer
	FindOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Record, error)

	// MarkRenegotiated flips the given records from open to renegotiated and
	// sets their back-reference to the consuming agreement
	MarkRenegotiated(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, agreementID uuid.UUID) error

	// CancelOpenByAgreement cancels every still-open record generated by the
	// agreement; settled installments are left untouched
	CancelOpenByAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) (int64, error)

	// InsertBatch persists new records
	InsertBatch(ctx context.Context, records []Record) error
}
