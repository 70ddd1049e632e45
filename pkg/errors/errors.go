package errors

import (
	"fmt"
)

// ErrorCategory groups processor return codes for handling and reporting
type ErrorCategory string

const (
	CategoryApproved          ErrorCategory = "approved"
	CategoryDeclined          ErrorCategory = "declined"
	CategoryInsufficientFunds ErrorCategory = "insufficient_funds"
	CategoryInvalidCard       ErrorCategory = "invalid_card"
	CategoryExpiredCard       ErrorCategory = "expired_card"
	CategoryFraud             ErrorCategory = "fraud"
	CategorySystemError       ErrorCategory = "system_error"
	CategoryInvalidRequest    ErrorCategory = "invalid_request"
	CategoryUnknown           ErrorCategory = "unknown"
)

// ISO 8583 response codes as returned in ProcReturnCode
var returnCodeCategories = map[string]ErrorCategory{
	"00": CategoryApproved,
	"01": CategoryDeclined, // refer to card issuer
	"02": CategoryDeclined,
	"05": CategoryDeclined, // do not honor
	"57": CategoryDeclined, // not permitted to cardholder
	"58": CategoryDeclined, // not permitted to terminal
	"61": CategoryDeclined, // exceeds withdrawal limit
	"65": CategoryDeclined,
	"51": CategoryInsufficientFunds,
	"14": CategoryInvalidCard,
	"15": CategoryInvalidCard, // no such issuer
	"55": CategoryInvalidCard, // incorrect PIN
	"82": CategoryInvalidCard, // CVV failure
	"33": CategoryExpiredCard,
	"54": CategoryExpiredCard,
	"04": CategoryFraud, // pick up card
	"07": CategoryFraud,
	"41": CategoryFraud, // lost card
	"43": CategoryFraud, // stolen card
	"59": CategoryFraud, // suspected fraud
	"62": CategoryFraud, // restricted card
	"12": CategoryInvalidRequest, // invalid transaction
	"13": CategoryInvalidRequest, // invalid amount
	"30": CategoryInvalidRequest, // format error
	"94": CategoryInvalidRequest, // duplicate transmission
	"91": CategorySystemError, // issuer unavailable
	"96": CategorySystemError, // system malfunction
	"99": CategorySystemError,
}

// retriableCategories may succeed if the buyer tries again later
var retriableCategories = map[ErrorCategory]bool{
	CategorySystemError: true,
}

// CategorizeReturnCode maps a processor return code to its category
func CategorizeReturnCode(code string) ErrorCategory {
	if category, ok := returnCodeCategories[code]; ok {
		return category
	}
	return CategoryUnknown
}

// ProcessorError describes a payment the processor declined
type ProcessorError struct {
	Code           string
	Message        string
	GatewayMessage string
	IsRetriable    bool
	Category       ErrorCategory
	OrderID        string
}

func (e *ProcessorError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("%s: %s (gateway: %s)", e.Code, e.Message, e.GatewayMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewProcessorError builds the error for a declined return code
func NewProcessorError(orderID, code, gatewayMessage string) *ProcessorError {
	category := CategorizeReturnCode(code)
	return &ProcessorError{
		Code:           code,
		Message:        fmt.Sprintf("payment %s", category),
		GatewayMessage: gatewayMessage,
		IsRetriable:    retriableCategories[category],
		Category:       category,
		OrderID:        orderID,
	}
}
