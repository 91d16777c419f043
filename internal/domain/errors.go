package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies a client-side error
type ErrorType string

const (
	// ValidationError represents validation failures reported by the backend
	ValidationError ErrorType = "VALIDATION_ERROR"
	// NotFoundError represents resource not found
	NotFoundError ErrorType = "NOT_FOUND_ERROR"
	// AuthenticationError represents credential or session failures
	AuthenticationError ErrorType = "AUTHENTICATION_ERROR"
	// AuthorizationError represents permission failures
	AuthorizationError ErrorType = "AUTHORIZATION_ERROR"
	// TransportError represents network-level failures (timeout, offline)
	TransportError ErrorType = "TRANSPORT_ERROR"
	// InternalError represents unexpected client-side failures
	InternalError ErrorType = "INTERNAL_ERROR"
	// ExternalServiceError represents backend 5xx failures
	ExternalServiceError ErrorType = "EXTERNAL_SERVICE_ERROR"
)

// Error is a client error with a stable code and optional context
type Error struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err is a *Error of the given type
func IsErrorType(err error, t ErrorType) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *Error {
	return &Error{
		Type:    ValidationError,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *Error {
	return &Error{
		Type:    NotFoundError,
		Code:    code,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *Error {
	return &Error{
		Type:    AuthenticationError,
		Code:    code,
		Message: message,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *Error {
	return &Error{
		Type:    AuthorizationError,
		Code:    code,
		Message: message,
	}
}

// NewTransportError creates a new transport error
func NewTransportError(code, message string, cause error) *Error {
	return &Error{
		Type:    TransportError,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    InternalError,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewExternalServiceError creates a new external service error
func NewExternalServiceError(code, message string, cause error) *Error {
	return &Error{
		Type:    ExternalServiceError,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
