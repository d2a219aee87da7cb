package handler

import (
	"errors"
	"io"
	"time"

	renegotiationapp "github.com/debtflow/backend/internal/application/renegotiation"
	"github.com/debtflow/backend/internal/domain/renegotiation"
	"github.com/debtflow/backend/internal/interfaces/http/dto"
	"github.com/debtflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RenegotiationHandler handles renegotiation API endpoints
type RenegotiationHandler struct {
	BaseHandler
	service *renegotiationapp.RenegotiationService
}

// NewRenegotiationHandler creates a new RenegotiationHandler
func NewRenegotiationHandler(service *renegotiationapp.RenegotiationService) *RenegotiationHandler {
	return &RenegotiationHandler{service: service}
}

// CreateRenegotiationRequest is the request body for creating an agreement
type CreateRenegotiationRequest struct {
	Branch           string   `json:"branch" binding:"required,max=20"`
	SourceRecordIDs  []string `json:"source_record_ids" binding:"required,min=1,dive,uuid"`
	InterestValue    string   `json:"interest_value" binding:"omitempty,money"`
	InterestPercent  string   `json:"interest_percent" binding:"omitempty,money"`
	FineValue        string   `json:"fine_value" binding:"omitempty,money"`
	FinePercent      string   `json:"fine_percent" binding:"omitempty,money"`
	DiscountValue    string   `json:"discount_value" binding:"omitempty,money"`
	InstallmentCount int      `json:"installment_count"`
	DueDateBase      *string  `json:"due_date_base" binding:"omitempty,datetime=2006-01-02"`
	OffsetPattern    []int    `json:"offset_pattern" binding:"omitempty,dive,min=1"`
	Series           string   `json:"series" binding:"omitempty,max=10"`
	Notes            string   `json:"notes"`
}

// BreakRenegotiationRequest is the request body for breaking an agreement
type BreakRenegotiationRequest struct {
	Notes string `json:"notes"`
}

// ListRenegotiationsRequest carries query filters for listing agreements
type ListRenegotiationsRequest struct {
	dto.ListRequest
	CustomerID *string `form:"customer_id" binding:"omitempty,uuid"`
	Status     *string `form:"status" binding:"omitempty,oneof=A Q C X"`
	FromDate   *string `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate     *string `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
}

// Create consolidates the referenced open ledger records into one new
// active agreement and returns it with its installment schedule persisted.
func (h *RenegotiationHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	operatorID, err := getOperatorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	var req CreateRenegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sourceIDs := make([]uuid.UUID, len(req.SourceRecordIDs))
	for i, raw := range req.SourceRecordIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid source record ID: "+raw)
			return
		}
		sourceIDs[i] = id
	}

	interestValue, err := parseMoney(req.InterestValue)
	if err != nil {
		h.BadRequest(c, "Invalid interest_value")
		return
	}
	interestPercent, err := parseMoney(req.InterestPercent)
	if err != nil {
		h.BadRequest(c, "Invalid interest_percent")
		return
	}
	fineValue, err := parseMoney(req.FineValue)
	if err != nil {
		h.BadRequest(c, "Invalid fine_value")
		return
	}
	finePercent, err := parseMoney(req.FinePercent)
	if err != nil {
		h.BadRequest(c, "Invalid fine_percent")
		return
	}
	discountValue, err := parseMoney(req.DiscountValue)
	if err != nil {
		h.BadRequest(c, "Invalid discount_value")
		return
	}

	var dueDateBase *time.Time
	if req.DueDateBase != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDateBase)
		if err != nil {
			h.BadRequest(c, "Invalid due_date_base")
			return
		}
		dueDateBase = &parsed
	}

	agreement, err := h.service.CreateAgreement(c.Request.Context(), renegotiationapp.CreateAgreementRequest{
		TenantID:         tenantID,
		Branch:           req.Branch,
		SourceRecordIDs:  sourceIDs,
		InterestValue:    interestValue,
		InterestPercent:  interestPercent,
		FineValue:        fineValue,
		FinePercent:      finePercent,
		DiscountValue:    discountValue,
		InstallmentCount: req.InstallmentCount,
		OperatorID:       operatorID,
		DueDateBase:      dueDateBase,
		OffsetPattern:    req.OffsetPattern,
		Series:           req.Series,
		Notes:            req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, agreement)
}

// List returns a filtered page of agreements
func (h *RenegotiationHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListRenegotiationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := renegotiation.DefaultAgreementFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.CustomerID != nil {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id")
			return
		}
		filter.CustomerID = &id
	}
	if req.Status != nil {
		status := renegotiation.Status(*req.Status)
		filter.Status = &status
	}
	if req.FromDate != nil {
		from, err := time.Parse("2006-01-02", *req.FromDate)
		if err != nil {
			h.BadRequest(c, "Invalid from_date")
			return
		}
		filter.FromDate = &from
	}
	if req.ToDate != nil {
		to, err := time.Parse("2006-01-02", *req.ToDate)
		if err != nil {
			h.BadRequest(c, "Invalid to_date")
			return
		}
		filter.ToDate = &to
	}

	page, err := h.service.ListAgreements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, filter.Page, filter.PageSize)
}

// Get returns one agreement
func (h *RenegotiationHandler) Get(c *gin.Context) {
	tenantID, agreementID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	agreement, err := h.service.GetAgreement(c.Request.Context(), tenantID, agreementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, agreement)
}

// ListInstallments returns the ledger records generated by an agreement
func (h *RenegotiationHandler) ListInstallments(c *gin.Context) {
	tenantID, agreementID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	installments, err := h.service.ListInstallments(c.Request.Context(), tenantID, agreementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, installments)
}

// GetLineage returns the agreement's renegotiation history, the agreement
// itself first, then each parent in turn
func (h *RenegotiationHandler) GetLineage(c *gin.Context) {
	tenantID, agreementID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	lineage, err := h.service.GetLineage(c.Request.Context(), tenantID, agreementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lineage)
}

// ListOpenRecords returns a customer's open ledger records, the candidates
// for a new renegotiation
func (h *RenegotiationHandler) ListOpenRecords(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	records, err := h.service.ListOpenRecords(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// Break moves an active agreement to broken and cancels its open installments
func (h *RenegotiationHandler) Break(c *gin.Context) {
	tenantID, agreementID, ok := h.tenantAndID(c)
	if !ok {
		return
	}
	operatorID, err := getOperatorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	// Body is optional; only notes can be supplied
	var req BreakRenegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.BreakAgreement(c.Request.Context(), renegotiationapp.BreakAgreementRequest{
		TenantID:    tenantID,
		AgreementID: agreementID,
		OperatorID:  operatorID,
		Notes:       req.Notes,
	}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *RenegotiationHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	agreementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agreement ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, agreementID, true
}

// parseMoney parses an optional decimal string; empty means zero
func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
