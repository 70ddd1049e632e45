package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/services/payment"
)

const approvedKey = "ORD-1|T1|verified_approved"

func orderRef() *domain.OrderReference {
	return &domain.OrderReference{
		OrderID:       "ORD-1",
		Amount:        decimal.RequireFromString("150.50"),
		Currency:      "504",
		TransactionID: "T1",
	}
}

func TestCallbackService_VerifyDelegates(t *testing.T) {
	params := signedParams(t)
	want := domain.ApprovedResult(domain.AckPostAuth, orderRef())

	verifier := new(MockCallbackVerifier)
	verifier.On("Verify", params).Return(want)

	svc := payment.NewCallbackService(verifier, nil, nil, time.Hour, zap.NewNop())
	assert.Equal(t, want, svc.Verify(params))
	verifier.AssertExpectations(t)
}

func TestCallbackService_OnSuccessRecordsResult(t *testing.T) {
	ctx := context.Background()
	result := domain.ApprovedResult(domain.AckPostAuth, orderRef())

	ledger := new(MockAttemptRepository)
	dedup := new(MockDeduplicator)
	dedup.On("FirstDelivery", ctx, approvedKey, time.Hour).Return(true, nil)
	ledger.On("RecordResult", ctx, result).Return(&domain.PaymentAttempt{
		OrderID: "ORD-1",
		Amount:  decimal.RequireFromString("150.5"),
		Status:  domain.AttemptStatusApproved,
	}, nil)

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, dedup, time.Hour, zap.NewNop())
	require.NoError(t, svc.OnSuccess(ctx, result))

	ledger.AssertExpectations(t)
	dedup.AssertExpectations(t)
}

func TestCallbackService_DuplicateDeliverySkipsLedger(t *testing.T) {
	ctx := context.Background()
	result := domain.ApprovedResult(domain.AckPostAuth, orderRef())

	ledger := new(MockAttemptRepository)
	dedup := new(MockDeduplicator)
	dedup.On("FirstDelivery", ctx, approvedKey, time.Hour).Return(false, nil)

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, dedup, time.Hour, zap.NewNop())
	require.NoError(t, svc.OnSuccess(ctx, result))

	ledger.AssertNotCalled(t, "RecordResult", mock.Anything, mock.Anything)
}

func TestCallbackService_GuardDownStillRecords(t *testing.T) {
	ctx := context.Background()
	result := domain.ApprovedResult(domain.AckPostAuth, orderRef())

	ledger := new(MockAttemptRepository)
	dedup := new(MockDeduplicator)
	dedup.On("FirstDelivery", ctx, approvedKey, time.Hour).Return(false, errors.New("redis down"))
	ledger.On("RecordResult", ctx, result).Return(nil, errors.New("deadlock"))

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, dedup, time.Hour, zap.NewNop())
	assert.Error(t, svc.OnSuccess(ctx, result))

	// no claim was taken, so nothing is released
	dedup.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestCallbackService_LedgerErrorReleasesClaim(t *testing.T) {
	ctx := context.Background()
	result := domain.ApprovedResult(domain.AckPostAuth, orderRef())
	dbErr := errors.New("deadlock")

	ledger := new(MockAttemptRepository)
	dedup := new(MockDeduplicator)
	dedup.On("FirstDelivery", ctx, approvedKey, time.Hour).Return(true, nil)
	dedup.On("Release", ctx, approvedKey).Return(nil)
	ledger.On("RecordResult", ctx, result).Return(nil, dbErr)

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, dedup, time.Hour, zap.NewNop())
	assert.ErrorIs(t, svc.OnSuccess(ctx, result), dbErr)
	dedup.AssertExpectations(t)
}

func TestCallbackService_UnknownOrderIsAudited(t *testing.T) {
	ctx := context.Background()
	result := domain.FailedResult("05", "Do not honour", orderRef())

	ledger := new(MockAttemptRepository)
	ledger.On("RecordResult", ctx, result).Return(nil, domain.ErrAttemptNotFound)
	ledger.On("RecordCallback", ctx, mock.MatchedBy(func(r *domain.CallbackRecord) bool {
		return r.OrderID == "ORD-1" && r.ReturnCode == "05" && r.Status == domain.VerificationFailed
	})).Return(nil)

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, nil, time.Hour, zap.NewNop())
	require.NoError(t, svc.OnFailure(ctx, result))
	ledger.AssertExpectations(t)
}

func TestCallbackService_RejectedIsAuditedOnly(t *testing.T) {
	ctx := context.Background()
	result := domain.RejectedResult(domain.RejectTampering, nil)

	ledger := new(MockAttemptRepository)
	dedup := new(MockDeduplicator)
	ledger.On("RecordCallback", ctx, mock.MatchedBy(func(r *domain.CallbackRecord) bool {
		return r.Status == domain.VerificationRejected && r.RejectReason == domain.RejectTampering
	})).Return(errors.New("insert failed"))

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, dedup, time.Hour, zap.NewNop())
	require.NoError(t, svc.OnFailure(ctx, result), "audit failures never fail the callback")

	ledger.AssertNotCalled(t, "RecordResult", mock.Anything, mock.Anything)
	dedup.AssertNotCalled(t, "FirstDelivery", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallbackService_AmountMismatchIsLogged(t *testing.T) {
	ctx := context.Background()
	result := domain.ApprovedResult(domain.AckApproved, orderRef())

	core, logs := observer.New(zapcore.WarnLevel)
	ledger := new(MockAttemptRepository)
	ledger.On("RecordResult", ctx, result).Return(&domain.PaymentAttempt{
		OrderID: "ORD-1",
		Amount:  decimal.RequireFromString("99.00"),
	}, nil)

	svc := payment.NewCallbackService(new(MockCallbackVerifier), ledger, nil, time.Hour, zap.New(core))
	require.NoError(t, svc.OnSuccess(ctx, result))

	entries := logs.FilterMessage("Callback amount differs from signed amount").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "99", entries[0].ContextMap()["signed_amount"])
	assert.Equal(t, "150.5", entries[0].ContextMap()["callback_amount"])
}

func TestCallbackService_NoLedgerIsNoop(t *testing.T) {
	svc := payment.NewCallbackService(new(MockCallbackVerifier), nil, nil, time.Hour, zap.NewNop())
	assert.NoError(t, svc.OnSuccess(context.Background(), domain.ApprovedResult(domain.AckPostAuth, orderRef())))
	assert.NoError(t, svc.OnFailure(context.Background(), domain.RejectedResult(domain.RejectHashNotFound, nil)))
}
