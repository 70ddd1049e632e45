package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeReturnCode(t *testing.T) {
	tests := []struct {
		code string
		want ErrorCategory
	}{
		{"00", CategoryApproved},
		{"05", CategoryDeclined},
		{"51", CategoryInsufficientFunds},
		{"54", CategoryExpiredCard},
		{"14", CategoryInvalidCard},
		{"43", CategoryFraud},
		{"13", CategoryInvalidRequest},
		{"96", CategorySystemError},
		{"", CategoryUnknown},
		{"XX", CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeReturnCode(tt.code))
		})
	}
}

func TestNewProcessorError(t *testing.T) {
	err := NewProcessorError("A1", "51", "Insufficient funds")
	assert.Equal(t, CategoryInsufficientFunds, err.Category)
	assert.False(t, err.IsRetriable)
	assert.Equal(t, "51: payment insufficient_funds (gateway: Insufficient funds)", err.Error())

	err = NewProcessorError("A1", "96", "")
	assert.True(t, err.IsRetriable)
	assert.Equal(t, "96: payment system_error", err.Error())
}
