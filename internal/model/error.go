package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeInvalidCSV      = "INVALID_CSV"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeBatchNotFound   = "BATCH_NOT_FOUND"
	ErrCodeExportNotFound  = "EXPORT_NOT_FOUND"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrBatchNotFound  = NewDomainError(ErrCodeBatchNotFound, "Batch not found")
	ErrExportNotFound = NewDomainError(ErrCodeExportNotFound, "Order export could not be loaded")
)
