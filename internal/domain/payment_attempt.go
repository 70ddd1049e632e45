package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttemptStatus is the lifecycle state of a signed checkout
type AttemptStatus string

const (
	AttemptStatusPending  AttemptStatus = "pending"  // signed, no callback yet
	AttemptStatusApproved AttemptStatus = "approved" // trusted callback with ProcReturnCode 00
	AttemptStatusFailed   AttemptStatus = "failed"   // trusted callback with any other code
)

// PaymentAttempt is the ledger row for one signed order
type PaymentAttempt struct {
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	ReturnCode    *string         `json:"return_code,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Currency      string          `json:"currency"`
	Status        AttemptStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
}

// IsFinal reports whether a trusted callback has settled the attempt
func (a *PaymentAttempt) IsFinal() bool {
	return a.Status == AttemptStatusApproved || a.Status == AttemptStatusFailed
}

// AttemptStatusFor maps a verified callback to the ledger status. Rejected
// callbacks never change an attempt.
func AttemptStatusFor(result VerificationResult) (AttemptStatus, bool) {
	switch result.Status {
	case VerificationApproved:
		return AttemptStatusApproved, true
	case VerificationFailed:
		return AttemptStatusFailed, true
	default:
		return "", false
	}
}

// CallbackRecord is the audit entry written for every callback received
type CallbackRecord struct {
	ReceivedAt   time.Time          `json:"received_at"`
	ID           string             `json:"id"`
	OrderID      string             `json:"order_id,omitempty"`
	Status       VerificationStatus `json:"status"`
	RejectReason RejectReason       `json:"reject_reason,omitempty"`
	ReturnCode   string             `json:"return_code,omitempty"`
	Message      string             `json:"message"`
}

// NewCallbackRecord builds the audit entry for any verification result
func NewCallbackRecord(result VerificationResult) *CallbackRecord {
	record := &CallbackRecord{
		Status:       result.Status,
		RejectReason: result.RejectReason,
		ReturnCode:   result.ErrorCode,
		Message:      result.Message,
	}
	if result.Order != nil {
		record.OrderID = result.Order.OrderID
	}
	if result.Success() {
		record.ReturnCode = ApprovedReturnCode
	}
	return record
}
