package persistence

import (
	"context"
	"time"

	"github.com/debtflow/backend/internal/domain/ledger"
	"github.com/debtflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRecordRepository implements ledger.RecordRepository using GORM
type GormLedgerRecordRepository struct {
	db *gorm.DB
}

// NewGormLedgerRecordRepository creates a new GormLedgerRecordRepository
func NewGormLedgerRecordRepository(db *gorm.DB) *GormLedgerRecordRepository {
	return &GormLedgerRecordRepository{db: db}
}

// FindOpenByIDsForUpdate locks and returns the open records among the given
// IDs. Rows are read in ascending ID order so concurrent renegotiations over
// overlapping record sets always acquire locks in the same sequence.
func (r *GormLedgerRecordRepository) FindOpenByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recordModels []models.LedgerRecordModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company = ? AND id IN ? AND status = ?", tenantID, ids, ledger.RecordStatusOpen).
		Order("id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainRecords(recordModels), nil
}

// FindByAgreement returns all records generated by an agreement
func (r *GormLedgerRecordRepository) FindByAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) ([]ledger.Record, error) {
	var recordModels []models.LedgerRecordModel
	if err := r.db.WithContext(ctx).
		Where("company = ? AND agreement_id = ?", tenantID, agreementID).
		Order("installment_number ASC").
		Find(&recordModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainRecords(recordModels), nil
}

// FindByAgreementForUpdate locks and returns all records generated by an
// agreement, in ascending ID order
func (r *GormLedgerRecordRepository) FindByAgreementForUpdate(ctx context.Context, tenantID, agreementID uuid.UUID) ([]ledger.Record, error) {
	var recordModels []models.LedgerRecordModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company = ? AND agreement_id = ?", tenantID, agreementID).
		Order("id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainRecords(recordModels), nil
}

// FindOpenByCustomer returns all open records for a customer, oldest due first
func (r *GormLedgerRecordRepository) FindOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]ledger.Record, error) {
	var recordModels []models.LedgerRecordModel
	if err := r.db.WithContext(ctx).
		Where("company = ? AND customer = ? AND status = ?", tenantID, customerID, ledger.RecordStatusOpen).
		Order("due_date ASC").
		Find(&recordModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainRecords(recordModels), nil
}

// MarkRenegotiated flips the given records to renegotiated and points them at
// the consuming agreement
func (r *GormLedgerRecordRepository) MarkRenegotiated(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, agreementID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerRecordModel{}).
		Where("company = ? AND id IN ? AND status = ?", tenantID, ids, ledger.RecordStatusOpen).
		Updates(map[string]interface{}{
			"status":       ledger.RecordStatusRenegotiated,
			"agreement_id": agreementID,
			"updated_at":   time.Now(),
		}).Error
	return translateError(err)
}

// CancelOpenByAgreement cancels every still-open record generated by the
// agreement and reports how many rows changed
func (r *GormLedgerRecordRepository) CancelOpenByAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerRecordModel{}).
		Where("company = ? AND agreement_id = ? AND status = ?", tenantID, agreementID, ledger.RecordStatusOpen).
		Updates(map[string]interface{}{
			"status":     ledger.RecordStatusCancelled,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// InsertBatch persists new records in a single statement
func (r *GormLedgerRecordRepository) InsertBatch(ctx context.Context, records []ledger.Record) error {
	if len(records) == 0 {
		return nil
	}
	recordModels := make([]models.LedgerRecordModel, len(records))
	for i := range records {
		recordModels[i] = *models.LedgerRecordModelFromDomain(&records[i])
	}
	return translateError(r.db.WithContext(ctx).Create(&recordModels).Error)
}

func toDomainRecords(recordModels []models.LedgerRecordModel) []ledger.Record {
	records := make([]ledger.Record, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records
}
