package payment_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/integrationcmi/cmi/internal/domain"
)

// MockRequestSigner mocks ports.RequestSigner
type MockRequestSigner struct {
	mock.Mock
}

func (m *MockRequestSigner) Build(req *domain.PaymentRequest) (*domain.ParameterSet, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParameterSet), args.Error(1)
}

// MockFormRenderer mocks ports.FormRenderer
type MockFormRenderer struct {
	mock.Mock
}

func (m *MockFormRenderer) Render(params *domain.ParameterSet, nonce string) ([]byte, error) {
	args := m.Called(params, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFormRenderer) Inputs(params *domain.ParameterSet) ([]string, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFormRenderer) GatewayURL() string {
	return m.Called().String(0)
}

// MockAttemptRepository mocks ports.PaymentAttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreatePending(ctx context.Context, attempt *domain.PaymentAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *MockAttemptRepository) RecordResult(ctx context.Context, result domain.VerificationResult) (*domain.PaymentAttempt, error) {
	args := m.Called(ctx, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttempt), args.Error(1)
}

func (m *MockAttemptRepository) RecordCallback(ctx context.Context, record *domain.CallbackRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockAttemptRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttempt), args.Error(1)
}

// MockDeduplicator mocks ports.CallbackDeduplicator
type MockDeduplicator struct {
	mock.Mock
}

func (m *MockDeduplicator) FirstDelivery(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeduplicator) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// MockCallbackVerifier mocks ports.CallbackVerifier
type MockCallbackVerifier struct {
	mock.Mock
}

func (m *MockCallbackVerifier) Verify(params *domain.ParameterSet) domain.VerificationResult {
	return m.Called(params).Get(0).(domain.VerificationResult)
}
