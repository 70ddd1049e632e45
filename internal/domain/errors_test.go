package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{
			name: "code and message",
			err:  NewDomainError(ErrorCodeInternalError, "internal server error"),
			want: "INTERNAL_ERROR: internal server error",
		},
		{
			name: "with field",
			err:  NewValidationError("email", "valid email is required"),
			want: "VALIDATION_FAILED: valid email is required (field email)",
		},
		{
			name: "with wrapped cause",
			err:  NewHashGenerationError(errors.New("invalid UTF-8")),
			want: "HASH_GENERATION_FAILED: hash generation failed: invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("sign request: %w", NewHashGenerationError(cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrHashGenerationFailed)
	assert.True(t, IsHashGenerationError(err))
	assert.False(t, IsValidationError(err))
}

func TestDomainError_IsMatchesSentinelByCode(t *testing.T) {
	err := WrapError(ErrorCodeAttemptNotFound, "payment attempt not found", errors.New("no rows"))

	assert.ErrorIs(t, err, ErrAttemptNotFound)
	assert.NotErrorIs(t, err, ErrDatabaseError)
	assert.True(t, IsNotFoundError(err))
}

func TestValidationPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation failed", NewValidationError("amount", "bad"), true},
		{"amount invalid", NewFieldError(ErrorCodeValidationAmountInvalid, "amount", "bad"), true},
		{"missing field", NewFieldError(ErrorCodeValidationMissingField, "okUrl", "bad"), true},
		{"duplicate field", NewFieldError(ErrorCodeValidationDuplicateField, "billtoname", "dup"), true},
		{"configuration", NewConfigurationError("clientId", "bad"), false},
		{"plain error", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidationError(tt.err))
		})
	}
}

func TestGetErrorCodeAndField(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewConfigurationError("gatewayUrl", "must be an http(s) URL"))

	assert.Equal(t, ErrorCodeConfigInvalid, GetErrorCode(err))
	assert.Equal(t, "gatewayUrl", GetErrorField(err))
	assert.True(t, IsConfigurationError(err))

	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, "", GetErrorField(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := NewValidationError("amount", "too small").WithDetail("min", "1")
	assert.Equal(t, "1", err.Details["min"])

	var bare DomainError
	bare.WithDetail("k", "v")
	assert.Equal(t, "v", bare.Details["k"])
}
