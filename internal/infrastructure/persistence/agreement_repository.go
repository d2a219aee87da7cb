package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/debtflow/backend/internal/domain/renegotiation"
	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/debtflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAgreementRepository implements renegotiation.AgreementRepository using GORM
type GormAgreementRepository struct {
	db *gorm.DB
}

// NewGormAgreementRepository creates a new GormAgreementRepository
func NewGormAgreementRepository(db *gorm.DB) *GormAgreementRepository {
	return &GormAgreementRepository{db: db}
}

// FindByIDForTenant finds an agreement by ID for a specific tenant
func (r *GormAgreementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*renegotiation.Agreement, error) {
	var model models.AgreementModel
	if err := r.db.WithContext(ctx).
		Where("company = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the agreement row for the surrounding transaction
func (r *GormAgreementRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*renegotiation.Agreement, error) {
	var model models.AgreementModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds agreements for a tenant with filtering and pagination
func (r *GormAgreementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter renegotiation.AgreementFilter) ([]renegotiation.Agreement, error) {
	var agreementModels []models.AgreementModel
	query := r.db.WithContext(ctx).Model(&models.AgreementModel{}).
		Where("company = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&agreementModels).Error; err != nil {
		return nil, translateError(err)
	}
	agreements := make([]renegotiation.Agreement, len(agreementModels))
	for i, model := range agreementModels {
		agreements[i] = *model.ToDomain()
	}
	return agreements, nil
}

// CountForTenant counts agreements for a tenant with filtering
func (r *GormAgreementRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter renegotiation.AgreementFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AgreementModel{}).
		Where("company = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Save creates or updates an agreement
func (r *GormAgreementRepository) Save(ctx context.Context, agreement *renegotiation.Agreement) error {
	model := models.AgreementModelFromDomain(agreement)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// applyFilter applies filter conditions, sorting, and pagination to a query
func (r *GormAgreementRepository) applyFilter(query *gorm.DB, filter renegotiation.AgreementFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Sort fields are whitelisted to keep user input out of the ORDER BY
	sortField := ValidateSortField(filter.OrderBy, AgreementSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	return query
}

// applyFilterWithoutPagination applies filter conditions without pagination
func (r *GormAgreementRepository) applyFilterWithoutPagination(query *gorm.DB, filter renegotiation.AgreementFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", filter.ToDate)
	}
	return query
}
