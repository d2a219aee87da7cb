package persistence

import (
	"errors"

	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
	pgUniqueViolation  = "23505"
)

// translateError maps driver-level failures onto domain errors so callers
// never see gorm or postgres internals.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected:
			return shared.ErrLockNotAcquired
		case pgUniqueViolation:
			return shared.NewDomainError("DUPLICATE_DOCUMENT", "Document number already exists for this tenant")
		}
	}
	return err
}
