package errors

import "fmt"

// ErrorCode represents a MindPrint error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrSourceNotFound   ErrorCode = "SOURCE_NOT_FOUND"  // 404
	ErrSellerNotFound   ErrorCode = "SELLER_NOT_FOUND"  // 404
	ErrTokenNotFound    ErrorCode = "TOKEN_NOT_FOUND"   // 404
	ErrTokenExpired     ErrorCode = "TOKEN_EXPIRED"     // 410
	ErrTokenRevoked     ErrorCode = "TOKEN_REVOKED"     // 410
	ErrRedactionFailed  ErrorCode = "REDACTION_FAILED"  // 422
	ErrWriteFailed      ErrorCode = "WRITE_FAILED"      // 500, retryable
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503, retryable
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code      ErrorCode
	Status    int
	Message   string
	Retryable bool
	Details   map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ExternalMessage returns the message safe to surface to remote callers.
// Expired and revoked tokens render identically so the distinction between
// the two terminal states is not observable from outside.
func (e *Error) ExternalMessage() string {
	if e.Code == ErrTokenExpired || e.Code == ErrTokenRevoked {
		return "token is no longer valid"
	}
	return e.Message
}

// ExternalCode returns the error code as rendered to external callers.
// Expired and revoked collapse into one code so the distinction between the
// two terminal token states is not observable outside the service.
func (e *Error) ExternalCode() string {
	if e.Code == ErrTokenExpired || e.Code == ErrTokenRevoked {
		return "TOKEN_INVALID"
	}
	return string(e.Code)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewSourceNotFound creates a 404 error for when no memory source files exist.
func NewSourceNotFound(dir string) *Error {
	return &Error{
		Code:    ErrSourceNotFound,
		Status:  404,
		Message: "No memory files found.",
		Details: map[string]any{"dir": dir},
	}
}

// NewSellerNotFound creates a 404 error for a seller without a saved asset.
func NewSellerNotFound(userID string) *Error {
	return &Error{
		Code:    ErrSellerNotFound,
		Status:  404,
		Message: fmt.Sprintf("no cognition asset for seller: %s", userID),
	}
}

// NewTokenNotFound creates a 404 error for an unknown rental token.
func NewTokenNotFound() *Error {
	return &Error{
		Code:    ErrTokenNotFound,
		Status:  404,
		Message: "rental token not found",
	}
}

// NewTokenExpired creates a 410 error for a rental past its expiry.
func NewTokenExpired() *Error {
	return &Error{
		Code:    ErrTokenExpired,
		Status:  410,
		Message: "rental token expired",
	}
}

// NewTokenRevoked creates a 410 error for a revoked rental.
func NewTokenRevoked() *Error {
	return &Error{
		Code:    ErrTokenRevoked,
		Status:  410,
		Message: "rental token revoked",
	}
}

// NewRedactionFailed creates a 422 error when pattern application fails.
// Partial redaction is a privacy breach, so the whole run aborts.
func NewRedactionFailed(msg string) *Error {
	return &Error{
		Code:    ErrRedactionFailed,
		Status:  422,
		Message: msg,
	}
}

// NewWriteFailed creates a retryable 500 error for serialization I/O failures.
func NewWriteFailed(err error) *Error {
	return &Error{
		Code:      ErrWriteFailed,
		Status:    500,
		Message:   fmt.Sprintf("failed to write cognition document: %v", err),
		Retryable: true,
	}
}

// NewStoreUnavailable creates a retryable 503 error for store timeouts.
func NewStoreUnavailable(err error) *Error {
	msg := "persona store unavailable"
	if err != nil {
		msg = fmt.Sprintf("persona store unavailable: %v", err)
	}
	return &Error{
		Code:      ErrStoreUnavailable,
		Status:    503,
		Message:   msg,
		Retryable: true,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a mindprint Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
