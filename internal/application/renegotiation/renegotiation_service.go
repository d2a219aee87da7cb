package renegotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/debtflow/backend/internal/domain/ledger"
	"github.com/debtflow/backend/internal/domain/renegotiation"
	"github.com/debtflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RenegotiationService consolidates open ledger records into agreements and
// drives the agreement lifecycle. Every mutating operation runs in one
// transaction: either all of its writes land or none do. The service never
// retries; lock contention surfaces as a retryable conflict for the caller.
type RenegotiationService struct {
	uow        renegotiation.UnitOfWork
	agreements renegotiation.AgreementRepository
	records    ledger.RecordRepository
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewRenegotiationService creates a new RenegotiationService
func NewRenegotiationService(
	uow renegotiation.UnitOfWork,
	agreements renegotiation.AgreementRepository,
	records ledger.RecordRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *RenegotiationService {
	return &RenegotiationService{
		uow:        uow,
		agreements: agreements,
		records:    records,
		events:     events,
		logger:     logger,
	}
}

// CreateAgreementRequest carries the inputs for CreateAgreement
type CreateAgreementRequest struct {
	TenantID        uuid.UUID
	Branch          string
	SourceRecordIDs []uuid.UUID
	InterestValue   decimal.Decimal
	InterestPercent decimal.Decimal
	FineValue       decimal.Decimal
	FinePercent     decimal.Decimal
	DiscountValue   decimal.Decimal
	// InstallmentCount below 1 is corrected to 1
	InstallmentCount int
	OperatorID       uuid.UUID
	// DueDateBase defaults to the latest due date among the consolidated
	// records, or today when none is in the future of the records
	DueDateBase *time.Time
	// OffsetPattern holds day gaps between consecutive installments; empty
	// means the flat 30-day cadence
	OffsetPattern []int
	Series        string
	Notes         string
}

// AgreementDTO is the external view of an agreement
type AgreementDTO struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Branch           string          `json:"branch"`
	SourceDocuments  []string        `json:"source_documents"`
	Series           string          `json:"series"`
	InstallmentCount int             `json:"installment_count"`
	DueDateBase      time.Time       `json:"due_date_base"`
	OriginalValue    decimal.Decimal `json:"original_value"`
	InterestValue    decimal.Decimal `json:"interest_value"`
	FineValue        decimal.Decimal `json:"fine_value"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	FinalValue       decimal.Decimal `json:"final_value"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	ParentID         *uuid.UUID      `json:"parent_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// InstallmentView is the audit view of one generated ledger record
type InstallmentView struct {
	ID                uuid.UUID       `json:"id"`
	DocumentNumber    string          `json:"document_number"`
	Series            string          `json:"series"`
	InstallmentNumber int             `json:"installment_number"`
	IssueDate         time.Time       `json:"issue_date"`
	DueDate           time.Time       `json:"due_date"`
	Value             decimal.Decimal `json:"value"`
	Status            string          `json:"status"`
}

// CreateAgreement consolidates the customer's open records identified by
// SourceRecordIDs into one new active agreement.
//
// Inside a single transaction it locks the matching open records in ascending
// ID order, validates they belong to one customer, computes the settlement,
// inserts the agreement, flips the sources to renegotiated and inserts the
// new installment schedule as open records. Business-rule violations are
// detected before any write.
func (s *RenegotiationService) CreateAgreement(ctx context.Context, req CreateAgreementRequest) (*AgreementDTO, error) {
	if len(req.SourceRecordIDs) == 0 {
		return nil, shared.NewDomainError("NO_ELIGIBLE_RECORDS", "No source records were provided")
	}

	var agreement *renegotiation.Agreement

	err := s.uow.Execute(ctx, func(stores renegotiation.Stores) error {
		records, err := stores.Records.FindOpenByIDsForUpdate(ctx, req.TenantID, req.SourceRecordIDs)
		if err != nil {
			return fmt.Errorf("failed to lock source records: %w", err)
		}
		if len(records) == 0 {
			return shared.NewDomainError("NO_ELIGIBLE_RECORDS", "No open records match the requested documents")
		}

		customerID := records[0].CustomerID
		for _, r := range records[1:] {
			if r.CustomerID != customerID {
				return shared.NewDomainError("MULTIPLE_CUSTOMERS", "Source records span more than one customer")
			}
		}

		// A source that was itself generated by an earlier agreement makes
		// that agreement the parent of this one.
		var parentID *uuid.UUID
		for _, r := range records {
			if r.AgreementID != nil {
				parentID = r.AgreementID
				break
			}
		}

		values := make([]decimal.Decimal, len(records))
		documents := make([]string, len(records))
		recordIDs := make([]uuid.UUID, len(records))
		for i, r := range records {
			values[i] = r.Value
			documents[i] = r.DocumentNumber
			recordIDs[i] = r.ID
		}

		settlement := renegotiation.Consolidate(values, req.InterestValue, req.FineValue, req.DiscountValue)

		agreement, err = renegotiation.NewAgreement(renegotiation.NewAgreementParams{
			TenantID:         req.TenantID,
			Branch:           req.Branch,
			CustomerID:       customerID,
			SourceDocuments:  documents,
			Series:           req.Series,
			InstallmentCount: req.InstallmentCount,
			DueDateBase:      resolveDueDateBase(req.DueDateBase, records),
			Settlement:       settlement,
			InterestValue:    req.InterestValue,
			InterestPercent:  req.InterestPercent,
			FineValue:        req.FineValue,
			FinePercent:      req.FinePercent,
			DiscountValue:    req.DiscountValue,
			OperatorID:       req.OperatorID,
			Notes:            req.Notes,
			ParentID:         parentID,
		})
		if err != nil {
			return err
		}

		if err := stores.Agreements.Save(ctx, agreement); err != nil {
			return fmt.Errorf("failed to save agreement: %w", err)
		}

		if err := stores.Records.MarkRenegotiated(ctx, req.TenantID, recordIDs, agreement.ID); err != nil {
			return fmt.Errorf("failed to mark source records renegotiated: %w", err)
		}

		installmentValues := renegotiation.Split(settlement.FinalValue, agreement.InstallmentCount)
		drafts := renegotiation.BuildSchedule(agreement.ID, installmentValues, agreement.DueDateBase, req.OffsetPattern)

		issueDate := time.Now()
		generated := make([]ledger.Record, len(drafts))
		for i, draft := range drafts {
			record, err := ledger.NewRecord(
				req.TenantID,
				req.Branch,
				customerID,
				draft.DocumentNumber,
				agreement.Series,
				draft.InstallmentNumber,
				issueDate,
				draft.DueDate,
				draft.Value,
			)
			if err != nil {
				return err
			}
			record.AgreementID = &agreement.ID
			generated[i] = *record
		}

		if err := stores.Records.InsertBatch(ctx, generated); err != nil {
			return fmt.Errorf("failed to insert installment records: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, agreement)

	s.logger.Info("renegotiation agreement created",
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("customer_id", agreement.CustomerID.String()),
		zap.Int("source_records", len(agreement.SourceDocuments)),
		zap.Int("installments", agreement.InstallmentCount),
		zap.String("final_value", agreement.FinalValue.StringFixed(2)),
	)

	return toAgreementDTO(agreement), nil
}

// BreakAgreementRequest carries the inputs for BreakAgreement
type BreakAgreementRequest struct {
	TenantID    uuid.UUID
	AgreementID uuid.UUID
	OperatorID  uuid.UUID
	Notes       string
}

// BreakAgreement moves an active agreement to broken and cancels its
// still-open installments in the same transaction. Settled installments are
// left untouched.
func (s *RenegotiationService) BreakAgreement(ctx context.Context, req BreakAgreementRequest) error {
	var (
		agreement *renegotiation.Agreement
		cancelled int64
	)

	err := s.uow.Execute(ctx, func(stores renegotiation.Stores) error {
		var err error
		agreement, err = stores.Agreements.FindByIDForUpdate(ctx, req.TenantID, req.AgreementID)
		if err != nil {
			return err
		}

		if err := agreement.Break(req.OperatorID, req.Notes); err != nil {
			return err
		}

		// Child rows are locked in ascending ID order before the cancel
		// touches them; a bare UPDATE would acquire row locks in scan order.
		if _, err := stores.Records.FindByAgreementForUpdate(ctx, req.TenantID, req.AgreementID); err != nil {
			return fmt.Errorf("failed to lock installment records: %w", err)
		}

		if err := stores.Agreements.Save(ctx, agreement); err != nil {
			return fmt.Errorf("failed to save agreement: %w", err)
		}

		cancelled, err = stores.Records.CancelOpenByAgreement(ctx, req.TenantID, req.AgreementID)
		if err != nil {
			return fmt.Errorf("failed to cancel open installments: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, agreement)

	s.logger.Info("renegotiation agreement broken",
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("operator_id", req.OperatorID.String()),
		zap.Int64("installments_cancelled", cancelled),
	)

	return nil
}

// GetAgreement fetches one agreement
func (s *RenegotiationService) GetAgreement(ctx context.Context, tenantID, agreementID uuid.UUID) (*AgreementDTO, error) {
	agreement, err := s.agreements.FindByIDForTenant(ctx, tenantID, agreementID)
	if err != nil {
		return nil, err
	}
	return toAgreementDTO(agreement), nil
}

// ListAgreements returns a filtered page of agreements
func (s *RenegotiationService) ListAgreements(ctx context.Context, tenantID uuid.UUID, filter renegotiation.AgreementFilter) (*shared.Paginated[AgreementDTO], error) {
	agreements, err := s.agreements.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.agreements.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]AgreementDTO, len(agreements))
	for i := range agreements {
		dtos[i] = *toAgreementDTO(&agreements[i])
	}

	page := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListInstallments returns the ledger records generated by an agreement,
// ordered by installment number
func (s *RenegotiationService) ListInstallments(ctx context.Context, tenantID, agreementID uuid.UUID) ([]InstallmentView, error) {
	if _, err := s.agreements.FindByIDForTenant(ctx, tenantID, agreementID); err != nil {
		return nil, err
	}

	records, err := s.records.FindByAgreement(ctx, tenantID, agreementID)
	if err != nil {
		return nil, err
	}
	return toInstallmentViews(records), nil
}

// ListOpenRecords returns a customer's open ledger records ordered by due
// date, the candidate set for a new renegotiation
func (s *RenegotiationService) ListOpenRecords(ctx context.Context, tenantID, customerID uuid.UUID) ([]InstallmentView, error) {
	records, err := s.records.FindOpenByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return toInstallmentViews(records), nil
}

// GetLineage walks the parent chain of an agreement root-ward and returns the
// renegotiation history, starting with the agreement itself. Parents always
// predate their children, so the walk terminates.
func (s *RenegotiationService) GetLineage(ctx context.Context, tenantID, agreementID uuid.UUID) ([]AgreementDTO, error) {
	var lineage []AgreementDTO

	next := &agreementID
	for next != nil {
		agreement, err := s.agreements.FindByIDForTenant(ctx, tenantID, *next)
		if err != nil {
			if len(lineage) > 0 {
				return nil, fmt.Errorf("broken lineage at agreement %s: %w", next, err)
			}
			return nil, err
		}
		lineage = append(lineage, *toAgreementDTO(agreement))
		next = agreement.ParentID
	}

	return lineage, nil
}

// resolveDueDateBase picks the explicit base when given, otherwise the latest
// due date among the consolidated sources, otherwise today
func resolveDueDateBase(explicit *time.Time, records []ledger.Record) time.Time {
	if explicit != nil {
		return *explicit
	}
	var max time.Time
	for _, r := range records {
		if r.DueDate.After(max) {
			max = r.DueDate
		}
	}
	if max.IsZero() {
		return time.Now()
	}
	return max
}

func (s *RenegotiationService) publishEvents(ctx context.Context, agreement *renegotiation.Agreement) {
	if s.events == nil || agreement == nil {
		return
	}
	if err := s.events.Publish(ctx, agreement.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish agreement events",
			zap.String("agreement_id", agreement.ID.String()),
			zap.Error(err),
		)
	}
	agreement.ClearDomainEvents()
}

func toInstallmentViews(records []ledger.Record) []InstallmentView {
	views := make([]InstallmentView, len(records))
	for i, r := range records {
		views[i] = InstallmentView{
			ID:                r.ID,
			DocumentNumber:    r.DocumentNumber,
			Series:            r.Series,
			InstallmentNumber: r.InstallmentNumber,
			IssueDate:         r.IssueDate,
			DueDate:           r.DueDate,
			Value:             r.Value,
			Status:            r.Status.String(),
		}
	}
	return views
}

func toAgreementDTO(a *renegotiation.Agreement) *AgreementDTO {
	return &AgreementDTO{
		ID:               a.ID,
		CustomerID:       a.CustomerID,
		Branch:           a.Branch,
		SourceDocuments:  a.SourceDocuments,
		Series:           a.Series,
		InstallmentCount: a.InstallmentCount,
		DueDateBase:      a.DueDateBase,
		OriginalValue:    a.OriginalValue,
		InterestValue:    a.InterestValue,
		FineValue:        a.FineValue,
		DiscountValue:    a.DiscountValue,
		FinalValue:       a.FinalValue,
		Status:           a.Status.String(),
		Notes:            a.Notes,
		ParentID:         a.ParentID,
		CreatedAt:        a.CreatedAt,
	}
}
