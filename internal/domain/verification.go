package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AckToken is the plain-text body the processor expects in reply to a callback
type AckToken string

const (
	AckPostAuth AckToken = "ACTION=POSTAUTH"
	AckApproved AckToken = "APPROVED"
	AckFailure  AckToken = "FAILURE"
)

// VerificationStatus is the verdict reached for an inbound callback
type VerificationStatus string

const (
	// VerificationApproved means the digest matched and the processor approved
	VerificationApproved VerificationStatus = "verified_approved"
	// VerificationFailed means the digest matched and the processor declined
	VerificationFailed VerificationStatus = "verified_failed"
	// VerificationRejected means the payload could not be trusted
	VerificationRejected VerificationStatus = "rejected"
)

// RejectReason explains a rejected callback
type RejectReason string

const (
	RejectHashNotFound      RejectReason = "hash not found"
	RejectTampering         RejectReason = "tampering suspected"
	RejectVerificationError RejectReason = "verification error"
)

// ApprovedReturnCode is the processor return code for an approved payment
const ApprovedReturnCode = "00"

// OrderReference identifies the order a trusted callback settles
type OrderReference struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TransactionID string          `json:"transaction_id"`
}

// VerificationResult is the outcome of verifying one callback
type VerificationResult struct {
	Status       VerificationStatus `json:"status"`
	Token        AckToken           `json:"token"`
	Message      string             `json:"message"`
	RejectReason RejectReason       `json:"reject_reason,omitempty"`
	ErrorCode    string             `json:"error_code,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Order        *OrderReference    `json:"order,omitempty"`
}

// Success reports whether the callback is a trusted approval
func (r VerificationResult) Success() bool {
	return r.Status == VerificationApproved
}

// Rejected reports whether the callback failed integrity checks
func (r VerificationResult) Rejected() bool {
	return r.Status == VerificationRejected
}

// ApprovedResult builds a trusted approval acknowledged with token
func ApprovedResult(token AckToken, order *OrderReference) VerificationResult {
	return VerificationResult{
		Status:  VerificationApproved,
		Token:   token,
		Message: "payment successful",
		Order:   order,
	}
}

// FailedResult builds a trusted business failure
func FailedResult(returnCode, errMsg string, order *OrderReference) VerificationResult {
	return VerificationResult{
		Status:       VerificationFailed,
		Token:        AckFailure,
		Message:      fmt.Sprintf("payment failed with return code: %s", returnCode),
		ErrorCode:    returnCode,
		ErrorMessage: errMsg,
		Order:        order,
	}
}

// RejectedResult builds an untrusted verdict. cause is only used for
// verification errors.
func RejectedResult(reason RejectReason, cause error) VerificationResult {
	msg := string(reason)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", reason, cause)
	}
	return VerificationResult{
		Status:       VerificationRejected,
		Token:        AckFailure,
		Message:      msg,
		RejectReason: reason,
	}
}
