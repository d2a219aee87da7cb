package renegotiation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/debtflow/backend/internal/domain/ledger"
	"github.com/debtflow/backend/internal/domain/renegotiation"
	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAgreementRepository is a mock implementation of AgreementRepository
type MockAgreementRepository struct {
	mock.Mock
}

func (m *MockAgreementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*renegotiation.Agreement, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*renegotiation.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*renegotiation.Agreement, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*renegotiation.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter renegotiation.AgreementFilter) ([]renegotiation.Agreement, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]renegotiation.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter renegotiation.AgreementFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAgreementRepository) Save(ctx context.Context, agreement *renegotiation.Agreement) error {
	args := m.Called(ctx, agreement)
	return args.Error(0)
}

// MockRecordRepository is a mock implementation of ledger.RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindOpenByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.Record, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]ledger.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) ([]ledger.Record, error) {
	args := m.Called(ctx, tenantID, agreementID)
	return args.Get(0).([]ledger.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByAgreementForUpdate(ctx context.Context, tenantID, agreementID uuid.UUID) ([]ledger.Record, error) {
	args := m.Called(ctx, tenantID, agreementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Record), args.Error(1)
}

func (m *MockRecordRepository) FindOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]ledger.Record, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).([]ledger.Record), args.Error(1)
}

func (m *MockRecordRepository) MarkRenegotiated(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, agreementID uuid.UUID) error {
	args := m.Called(ctx, tenantID, ids, agreementID)
	return args.Error(0)
}

func (m *MockRecordRepository) CancelOpenByAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, agreementID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) InsertBatch(ctx context.Context, records []ledger.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// fakeUnitOfWork hands the callback the test's mock stores. When err is set
// the callback never runs, mimicking a transaction that failed to start.
type fakeUnitOfWork struct {
	stores renegotiation.Stores
	err    error
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(stores renegotiation.Stores) error) error {
	if u.err != nil {
		return u.err
	}
	return fn(u.stores)
}

type serviceFixture struct {
	service    *RenegotiationService
	agreements *MockAgreementRepository
	records    *MockRecordRepository
	uow        *fakeUnitOfWork
}

func newServiceFixture() *serviceFixture {
	agreements := new(MockAgreementRepository)
	records := new(MockRecordRepository)
	uow := &fakeUnitOfWork{stores: renegotiation.Stores{Agreements: agreements, Records: records}}

	return &serviceFixture{
		service:    NewRenegotiationService(uow, agreements, records, nil, zap.NewNop()),
		agreements: agreements,
		records:    records,
		uow:        uow,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func openRecord(t *testing.T, tenantID, customerID uuid.UUID, doc, value string, dueDate time.Time) ledger.Record {
	t.Helper()
	r, err := ledger.NewRecord(tenantID, "001", customerID, doc, "A", 1,
		dueDate.AddDate(0, -2, 0), dueDate, dec(value))
	require.NoError(t, err)
	return *r
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	assert.Equal(t, code, domainErr.Code)
}

func TestCreateAgreement(t *testing.T) {
	tenantID := uuid.New()
	customerID := uuid.New()
	operatorID := uuid.New()
	dueDate := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	t.Run("settles 450.00 into two equal installments", func(t *testing.T) {
		f := newServiceFixture()

		sources := []ledger.Record{
			openRecord(t, tenantID, customerID, "NF-001", "150.00", dueDate.AddDate(0, 0, -10)),
			openRecord(t, tenantID, customerID, "NF-002", "300.00", dueDate),
		}
		sourceIDs := []uuid.UUID{sources[0].ID, sources[1].ID}

		f.records.On("FindOpenByIDsForUpdate", mock.Anything, tenantID, sourceIDs).Return(sources, nil)
		f.agreements.On("Save", mock.Anything, mock.AnythingOfType("*renegotiation.Agreement")).Return(nil)
		f.records.On("MarkRenegotiated", mock.Anything, tenantID, sourceIDs, mock.AnythingOfType("uuid.UUID")).Return(nil)

		var inserted []ledger.Record
		f.records.On("InsertBatch", mock.Anything, mock.AnythingOfType("[]ledger.Record")).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).([]ledger.Record)
			}).Return(nil)

		dto, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:         tenantID,
			Branch:           "001",
			SourceRecordIDs:  sourceIDs,
			InterestValue:    dec("20.00"),
			FineValue:        dec("10.00"),
			DiscountValue:    dec("30.00"),
			InstallmentCount: 2,
			OperatorID:       operatorID,
		})

		require.NoError(t, err)
		assert.True(t, dec("450.00").Equal(dto.OriginalValue), "original: %s", dto.OriginalValue)
		assert.True(t, dec("450.00").Equal(dto.FinalValue), "final: %s", dto.FinalValue)
		assert.Equal(t, "ACTIVE", dto.Status)
		assert.Equal(t, []string{"NF-001", "NF-002"}, dto.SourceDocuments)
		assert.Equal(t, renegotiation.DefaultSeries, dto.Series)
		// No explicit base: latest source due date wins
		assert.Equal(t, dueDate, dto.DueDateBase)

		require.Len(t, inserted, 2)
		for i, record := range inserted {
			assert.True(t, dec("225.00").Equal(record.Value), "installment %d: %s", i+1, record.Value)
			assert.Equal(t, i+1, record.InstallmentNumber)
			assert.Equal(t, ledger.RecordStatusOpen, record.Status)
			assert.Equal(t, customerID, record.CustomerID)
			assert.Equal(t, renegotiation.DraftDocumentNumber(dto.ID, i+1), record.DocumentNumber)
			require.NotNil(t, record.AgreementID)
			assert.Equal(t, dto.ID, *record.AgreementID)
		}
		assert.Equal(t, dueDate, inserted[0].DueDate)
		assert.Equal(t, dueDate.AddDate(0, 0, 30), inserted[1].DueDate)

		f.records.AssertExpectations(t)
		f.agreements.AssertExpectations(t)
	})

	t.Run("no source ids fails before the transaction", func(t *testing.T) {
		f := newServiceFixture()
		f.uow.err = errors.New("transaction must not start")

		_, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:   tenantID,
			OperatorID: operatorID,
		})

		assertCode(t, err, "NO_ELIGIBLE_RECORDS")
	})

	t.Run("no open records fails without writes", func(t *testing.T) {
		f := newServiceFixture()
		ids := []uuid.UUID{uuid.New()}

		f.records.On("FindOpenByIDsForUpdate", mock.Anything, tenantID, ids).Return([]ledger.Record{}, nil)

		_, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:        tenantID,
			SourceRecordIDs: ids,
			OperatorID:      operatorID,
		})

		assertCode(t, err, "NO_ELIGIBLE_RECORDS")
		f.agreements.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "MarkRenegotiated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	})

	t.Run("records from two customers fail without writes", func(t *testing.T) {
		f := newServiceFixture()

		sources := []ledger.Record{
			openRecord(t, tenantID, customerID, "NF-001", "100.00", dueDate),
			openRecord(t, tenantID, uuid.New(), "NF-003", "100.00", dueDate),
		}
		ids := []uuid.UUID{sources[0].ID, sources[1].ID}

		f.records.On("FindOpenByIDsForUpdate", mock.Anything, tenantID, ids).Return(sources, nil)

		_, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:        tenantID,
			SourceRecordIDs: ids,
			OperatorID:      operatorID,
		})

		assertCode(t, err, "MULTIPLE_CUSTOMERS")
		f.agreements.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	})

	t.Run("discount above the consolidated total fails without writes", func(t *testing.T) {
		f := newServiceFixture()

		sources := []ledger.Record{
			openRecord(t, tenantID, customerID, "NF-001", "100.00", dueDate),
		}
		ids := []uuid.UUID{sources[0].ID}

		f.records.On("FindOpenByIDsForUpdate", mock.Anything, tenantID, ids).Return(sources, nil)

		_, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:        tenantID,
			SourceRecordIDs: ids,
			DiscountValue:   dec("100.01"),
			OperatorID:      operatorID,
		})

		assertCode(t, err, "DISCOUNT_EXCEEDS_TOTAL")
		f.agreements.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("source generated by an earlier agreement becomes the parent", func(t *testing.T) {
		f := newServiceFixture()
		parentAgreementID := uuid.New()

		source := openRecord(t, tenantID, customerID, "RN-OLD-001", "200.00", dueDate)
		source.AgreementID = &parentAgreementID
		ids := []uuid.UUID{source.ID}

		f.records.On("FindOpenByIDsForUpdate", mock.Anything, tenantID, ids).Return([]ledger.Record{source}, nil)
		f.agreements.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.records.On("MarkRenegotiated", mock.Anything, tenantID, ids, mock.Anything).Return(nil)
		f.records.On("InsertBatch", mock.Anything, mock.Anything).Return(nil)

		dto, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:        tenantID,
			SourceRecordIDs: ids,
			OperatorID:      operatorID,
		})

		require.NoError(t, err)
		require.NotNil(t, dto.ParentID)
		assert.Equal(t, parentAgreementID, *dto.ParentID)
	})

	t.Run("lock timeout surfaces as a conflict", func(t *testing.T) {
		f := newServiceFixture()
		f.uow.err = shared.ErrLockNotAcquired

		_, err := f.service.CreateAgreement(context.Background(), CreateAgreementRequest{
			TenantID:        tenantID,
			SourceRecordIDs: []uuid.UUID{uuid.New()},
			OperatorID:      operatorID,
		})

		assertCode(t, err, "LOCK_NOT_ACQUIRED")
	})
}

func activeAgreement(t *testing.T, tenantID uuid.UUID) *renegotiation.Agreement {
	t.Helper()
	ag, err := renegotiation.NewAgreement(renegotiation.NewAgreementParams{
		TenantID:        tenantID,
		Branch:          "001",
		CustomerID:      uuid.New(),
		SourceDocuments: []string{"NF-001"},
		DueDateBase:     time.Now(),
		Settlement: renegotiation.Settlement{
			OriginalTotal: dec("100.00"),
			FinalValue:    dec("100.00"),
		},
		InstallmentCount: 2,
		OperatorID:       uuid.New(),
	})
	require.NoError(t, err)
	ag.ClearDomainEvents()
	return ag
}

func TestBreakAgreement(t *testing.T) {
	tenantID := uuid.New()
	operatorID := uuid.New()

	t.Run("breaks active agreement and cancels open installments", func(t *testing.T) {
		f := newServiceFixture()
		ag := activeAgreement(t, tenantID)

		f.agreements.On("FindByIDForUpdate", mock.Anything, tenantID, ag.ID).Return(ag, nil)
		f.records.On("FindByAgreementForUpdate", mock.Anything, tenantID, ag.ID).Return([]ledger.Record{}, nil)
		f.agreements.On("Save", mock.Anything, ag).Return(nil)
		f.records.On("CancelOpenByAgreement", mock.Anything, tenantID, ag.ID).Return(int64(2), nil)

		err := f.service.BreakAgreement(context.Background(), BreakAgreementRequest{
			TenantID:    tenantID,
			AgreementID: ag.ID,
			OperatorID:  operatorID,
			Notes:       "payment stopped",
		})

		require.NoError(t, err)
		assert.Equal(t, renegotiation.StatusBroken, ag.Status)
		assert.Equal(t, operatorID, ag.OperatorID)
		f.agreements.AssertExpectations(t)
		f.records.AssertExpectations(t)
	})

	t.Run("locks the installment rows before cancelling them", func(t *testing.T) {
		f := newServiceFixture()
		ag := activeAgreement(t, tenantID)

		var calls []string
		f.agreements.On("FindByIDForUpdate", mock.Anything, tenantID, ag.ID).Return(ag, nil)
		f.records.On("FindByAgreementForUpdate", mock.Anything, tenantID, ag.ID).
			Run(func(mock.Arguments) { calls = append(calls, "lock") }).
			Return([]ledger.Record{}, nil)
		f.agreements.On("Save", mock.Anything, ag).Return(nil)
		f.records.On("CancelOpenByAgreement", mock.Anything, tenantID, ag.ID).
			Run(func(mock.Arguments) { calls = append(calls, "cancel") }).
			Return(int64(1), nil)

		err := f.service.BreakAgreement(context.Background(), BreakAgreementRequest{
			TenantID:    tenantID,
			AgreementID: ag.ID,
			OperatorID:  operatorID,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"lock", "cancel"}, calls)
	})

	t.Run("failure to lock installments aborts before any cancel", func(t *testing.T) {
		f := newServiceFixture()
		ag := activeAgreement(t, tenantID)

		f.agreements.On("FindByIDForUpdate", mock.Anything, tenantID, ag.ID).Return(ag, nil)
		f.records.On("FindByAgreementForUpdate", mock.Anything, tenantID, ag.ID).
			Return(nil, shared.ErrLockNotAcquired)

		err := f.service.BreakAgreement(context.Background(), BreakAgreementRequest{
			TenantID:    tenantID,
			AgreementID: ag.ID,
			OperatorID:  operatorID,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrLockNotAcquired)
		f.agreements.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "CancelOpenByAgreement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("break on already broken agreement fails without writes", func(t *testing.T) {
		f := newServiceFixture()
		ag := activeAgreement(t, tenantID)
		require.NoError(t, ag.Break(operatorID, ""))
		ag.ClearDomainEvents()

		f.agreements.On("FindByIDForUpdate", mock.Anything, tenantID, ag.ID).Return(ag, nil)

		err := f.service.BreakAgreement(context.Background(), BreakAgreementRequest{
			TenantID:    tenantID,
			AgreementID: ag.ID,
			OperatorID:  operatorID,
		})

		assertCode(t, err, "AGREEMENT_NOT_ACTIVE")
		f.agreements.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "CancelOpenByAgreement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing agreement passes the not-found through", func(t *testing.T) {
		f := newServiceFixture()
		agreementID := uuid.New()

		f.agreements.On("FindByIDForUpdate", mock.Anything, tenantID, agreementID).Return(nil, shared.ErrNotFound)

		err := f.service.BreakAgreement(context.Background(), BreakAgreementRequest{
			TenantID:    tenantID,
			AgreementID: agreementID,
			OperatorID:  operatorID,
		})

		assertCode(t, err, "NOT_FOUND")
	})
}

func TestGetLineage(t *testing.T) {
	tenantID := uuid.New()

	t.Run("walks the parent chain root-ward", func(t *testing.T) {
		f := newServiceFixture()

		root := activeAgreement(t, tenantID)
		middle := activeAgreement(t, tenantID)
		middle.ParentID = &root.ID
		leaf := activeAgreement(t, tenantID)
		leaf.ParentID = &middle.ID

		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, leaf.ID).Return(leaf, nil)
		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, middle.ID).Return(middle, nil)
		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, root.ID).Return(root, nil)

		lineage, err := f.service.GetLineage(context.Background(), tenantID, leaf.ID)

		require.NoError(t, err)
		require.Len(t, lineage, 3)
		assert.Equal(t, leaf.ID, lineage[0].ID)
		assert.Equal(t, middle.ID, lineage[1].ID)
		assert.Equal(t, root.ID, lineage[2].ID)
	})

	t.Run("agreement without a parent yields itself only", func(t *testing.T) {
		f := newServiceFixture()
		root := activeAgreement(t, tenantID)

		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, root.ID).Return(root, nil)

		lineage, err := f.service.GetLineage(context.Background(), tenantID, root.ID)

		require.NoError(t, err)
		require.Len(t, lineage, 1)
	})

	t.Run("unknown agreement is a not-found", func(t *testing.T) {
		f := newServiceFixture()
		id := uuid.New()

		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.GetLineage(context.Background(), tenantID, id)

		assertCode(t, err, "NOT_FOUND")
	})
}

func TestListInstallments(t *testing.T) {
	tenantID := uuid.New()

	t.Run("maps generated records to views", func(t *testing.T) {
		f := newServiceFixture()
		ag := activeAgreement(t, tenantID)

		first := openRecord(t, tenantID, ag.CustomerID, renegotiation.DraftDocumentNumber(ag.ID, 1), "50.00", time.Now())
		second := openRecord(t, tenantID, ag.CustomerID, renegotiation.DraftDocumentNumber(ag.ID, 2), "50.00", time.Now().AddDate(0, 0, 30))

		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, ag.ID).Return(ag, nil)
		f.records.On("FindByAgreement", mock.Anything, tenantID, ag.ID).Return([]ledger.Record{first, second}, nil)

		views, err := f.service.ListInstallments(context.Background(), tenantID, ag.ID)

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, first.DocumentNumber, views[0].DocumentNumber)
		assert.Equal(t, "OPEN", views[0].Status)
	})

	t.Run("unknown agreement is a not-found", func(t *testing.T) {
		f := newServiceFixture()
		id := uuid.New()

		f.agreements.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.ListInstallments(context.Background(), tenantID, id)

		assertCode(t, err, "NOT_FOUND")
	})
}

func TestListOpenRecords(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns the customer's open records", func(t *testing.T) {
		f := newServiceFixture()
		customerID := uuid.New()

		first := openRecord(t, tenantID, customerID, "NF-010", "80.00", time.Now())
		second := openRecord(t, tenantID, customerID, "NF-011", "120.00", time.Now().AddDate(0, 1, 0))

		f.records.On("FindOpenByCustomer", mock.Anything, tenantID, customerID).
			Return([]ledger.Record{first, second}, nil)

		views, err := f.service.ListOpenRecords(context.Background(), tenantID, customerID)

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "NF-010", views[0].DocumentNumber)
		assert.Equal(t, "OPEN", views[0].Status)
		assert.True(t, dec("120.00").Equal(views[1].Value))
	})

	t.Run("customer without open records yields an empty list", func(t *testing.T) {
		f := newServiceFixture()
		customerID := uuid.New()

		f.records.On("FindOpenByCustomer", mock.Anything, tenantID, customerID).
			Return([]ledger.Record{}, nil)

		views, err := f.service.ListOpenRecords(context.Background(), tenantID, customerID)

		require.NoError(t, err)
		assert.Empty(t, views)
	})
}

func TestListAgreements(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns a page with totals", func(t *testing.T) {
		f := newServiceFixture()
		filter := renegotiation.DefaultAgreementFilter()

		f.agreements.On("FindAllForTenant", mock.Anything, tenantID, filter).
			Return([]renegotiation.Agreement{*activeAgreement(t, tenantID)}, nil)
		f.agreements.On("CountForTenant", mock.Anything, tenantID, filter).Return(int64(41), nil)

		page, err := f.service.ListAgreements(context.Background(), tenantID, filter)

		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(41), page.Total)
	})
}
