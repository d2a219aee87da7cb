package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown    = "UNKNOWN"
	ErrCodeInternal   = "INTERNAL"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Renegotiation error codes. These match the codes raised by the domain
// layer so they pass through the envelope unchanged.
const (
	ErrCodeNoEligibleRecords    = "NO_ELIGIBLE_RECORDS"
	ErrCodeMultipleCustomers    = "MULTIPLE_CUSTOMERS"
	ErrCodeDiscountExceedsTotal = "DISCOUNT_EXCEEDS_TOTAL"
	ErrCodeAgreementNotActive   = "AGREEMENT_NOT_ACTIVE"
	ErrCodeLockNotAcquired      = "LOCK_NOT_ACQUIRED"
	ErrCodeDuplicateDocument    = "DUPLICATE_DOCUMENT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:    http.StatusInternalServerError,
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,
	ErrCodeValidation: http.StatusBadRequest,

	// Request shape is fine but the referenced records cannot be combined
	ErrCodeNoEligibleRecords:    http.StatusBadRequest,
	ErrCodeMultipleCustomers:    http.StatusBadRequest,
	ErrCodeDiscountExceedsTotal: http.StatusBadRequest,

	"INVALID_INPUT":              http.StatusBadRequest,
	"INVALID_CUSTOMER":           http.StatusBadRequest,
	"INVALID_OPERATOR":           http.StatusBadRequest,
	"INVALID_DOCUMENT_NUMBER":    http.StatusBadRequest,
	"INVALID_SERIES":             http.StatusBadRequest,
	"INVALID_INSTALLMENT_NUMBER": http.StatusBadRequest,

	// Retryable conflicts
	ErrCodeAgreementNotActive: http.StatusConflict,
	ErrCodeLockNotAcquired:    http.StatusConflict,
	ErrCodeDuplicateDocument:  http.StatusConflict,

	"INVALID_STATE": http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
