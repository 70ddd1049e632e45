package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Configuration Errors (CONFIG_*)
	ErrorCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed         ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid  ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField   ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationDuplicateField ErrorCode = "VALIDATION_DUPLICATE_FIELD"

	// Signing Errors (HASH_*)
	ErrorCodeHashGenerationFailed ErrorCode = "HASH_GENERATION_FAILED"

	// Ledger Errors (ATTEMPT_*)
	ErrorCodeAttemptNotFound ErrorCode = "ATTEMPT_NOT_FOUND"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Field   string
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", e.Message, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code so sentinel instances work with errors.Is
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code && other.Field == "" && other.Err == nil
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

// NewValidationError reports a rejected business field. Nothing is signed when one is returned.
func NewValidationError(field, message string) *DomainError {
	e := NewDomainError(ErrorCodeValidationFailed, message)
	e.Field = field
	return e
}

// NewFieldError is NewValidationError with a more specific validation code
func NewFieldError(code ErrorCode, field, message string) *DomainError {
	e := NewDomainError(code, message)
	e.Field = field
	return e
}

// NewConfigurationError reports an invalid gateway setting
func NewConfigurationError(field, message string) *DomainError {
	e := NewDomainError(ErrorCodeConfigInvalid, message)
	e.Field = field
	return e
}

// NewHashGenerationError wraps a canonicalization or digest failure
func NewHashGenerationError(err error) *DomainError {
	return WrapError(ErrorCodeHashGenerationFailed, "hash generation failed", err)
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

// GetErrorField returns the offending field name of a DomainError, if any
func GetErrorField(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Field
	}
	return ""
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeValidationDuplicateField
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return IsDomainError(err, ErrorCodeConfigInvalid)
}

// IsHashGenerationError checks if an error came out of the canonicalizer
func IsHashGenerationError(err error) bool {
	return IsDomainError(err, ErrorCodeHashGenerationFailed)
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return IsDomainError(err, ErrorCodeAttemptNotFound)
}

var (
	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")
	ErrDuplicateField          = NewDomainError(ErrorCodeValidationDuplicateField, "duplicate field")

	ErrConfigInvalid = NewDomainError(ErrorCodeConfigInvalid, "invalid gateway configuration")

	ErrHashGenerationFailed = NewDomainError(ErrorCodeHashGenerationFailed, "hash generation failed")

	ErrAttemptNotFound = NewDomainError(ErrorCodeAttemptNotFound, "payment attempt not found")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
