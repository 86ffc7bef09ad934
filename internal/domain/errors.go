package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Authorization Errors (AUTH_*)
	ErrorCodeAuthAccessDenied ErrorCode = "AUTH_ACCESS_DENIED"

	// Payment Errors (PAYMENT_*)
	ErrorCodePaymentNotFound     ErrorCode = "PAYMENT_NOT_FOUND"
	ErrorCodePaymentInvalidState ErrorCode = "PAYMENT_INVALID_STATE"

	// Payment Account Errors (ACCOUNT_*)
	ErrorCodeAccountNotFound         ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrorCodeAccountAlreadyConnected ErrorCode = "ACCOUNT_ALREADY_CONNECTED"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayError ErrorCode = "GATEWAY_ERROR"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePaymentNotFound || code == ErrorCodeAccountNotFound
}

// IsAuthError checks if an error is authorization related
func IsAuthError(err error) bool {
	return GetErrorCode(err) == ErrorCodeAuthAccessDenied
}

// IsInvalidStateError checks if an error is an invalid-state/invalid-request error
func IsInvalidStateError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePaymentInvalidState || code == ErrorCodeAccountAlreadyConnected
}

// Structured error instances
var (
	ErrAccessDenied = NewDomainError(ErrorCodeAuthAccessDenied, "access denied")

	ErrPaymentNotFound     = NewDomainError(ErrorCodePaymentNotFound, "payment not found")
	ErrPaymentInvalidState = NewDomainError(ErrorCodePaymentInvalidState, "payment is in invalid state for this operation")

	ErrAccountNotFound         = NewDomainError(ErrorCodeAccountNotFound, "payment account not found")
	ErrAccountAlreadyConnected = NewDomainError(ErrorCodeAccountAlreadyConnected, "payment account is already connected")

	ErrValidationFailed = NewDomainError(ErrorCodeValidationFailed, "validation failed")

	ErrGatewayError = NewDomainError(ErrorCodeGatewayError, "payment gateway error")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
