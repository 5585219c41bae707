package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
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

// Error codes used across the domain
const (
	CodeValidation             = "VALIDATION"
	CodeForbidden              = "FORBIDDEN"
	CodeIllegalTransition      = "ILLEGAL_TRANSITION"
	CodeConflict               = "CONFLICT"
	CodeNotFound               = "NOT_FOUND"
	CodeUpstreamFailure        = "UPSTREAM_FAILURE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden           = NewDomainError(CodeForbidden, "Actor is not permitted to perform this action")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
)

// NewValidationError creates a VALIDATION error with the given message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewForbiddenError creates a FORBIDDEN error with the given message
func NewForbiddenError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

// NewIllegalTransitionError creates an ILLEGAL_TRANSITION error with the given message
func NewIllegalTransitionError(message string) *DomainError {
	return NewDomainError(CodeIllegalTransition, message)
}

// NewConflictError creates a CONFLICT error with the given message
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewNotFoundError creates a NOT_FOUND error with the given message
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewUpstreamFailureError creates an UPSTREAM_FAILURE error with the given message
func NewUpstreamFailureError(message string) *DomainError {
	return NewDomainError(CodeUpstreamFailure, message)
}
