package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/debtflow/backend/internal/domain/renegotiation"
	"gorm.io/gorm"
)

// GormUnitOfWork implements renegotiation.UnitOfWork on a single GORM
// transaction. Every repository handed to the callback is bound to that
// transaction, so row locks taken through them hold until commit.
type GormUnitOfWork struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormUnitOfWork creates a unit of work with the given lock wait budget.
// A zero lockTimeout leaves the server default in place.
func NewGormUnitOfWork(db *gorm.DB, lockTimeout time.Duration) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn inside a transaction. SET LOCAL scopes the lock wait
// budget to this transaction only; a lock wait that exceeds it surfaces as
// a retryable conflict through translateError.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(stores renegotiation.Stores) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		stores := renegotiation.Stores{
			Agreements: NewGormAgreementRepository(tx),
			Records:    NewGormLedgerRecordRepository(tx),
		}
		return fn(stores)
	})
	return translateError(err)
}

var _ renegotiation.UnitOfWork = (*GormUnitOfWork)(nil)
