package ports

import (
	"context"
	"time"

	"github.com/integrationcmi/cmi/internal/domain"
)

// PaymentRequestValidator checks the merchant-supplied business fields of a
// checkout before anything is signed
type PaymentRequestValidator interface {
	// Validate returns a domain ValidationError naming the first offending field
	Validate(req *domain.PaymentRequest) error
}

// RequestSigner builds the signed parameter set posted to the hosted payment page
type RequestSigner interface {
	// Build validates req, assembles every gateway field and attaches the
	// digest under "hash". The returned set is final.
	Build(req *domain.PaymentRequest) (*domain.ParameterSet, error)
}

// CallbackVerifier decides whether an inbound callback can be trusted
type CallbackVerifier interface {
	// Verify never returns an error and never panics. Untrusted input yields a
	// rejected result.
	Verify(params *domain.ParameterSet) domain.VerificationResult
}

// FormRenderer renders a signed parameter set as an auto-submitting HTML page
type FormRenderer interface {
	Render(params *domain.ParameterSet, nonce string) ([]byte, error)
	Inputs(params *domain.ParameterSet) ([]string, error)
	GatewayURL() string
}

// PaymentAttemptRepository is the payment ledger
type PaymentAttemptRepository interface {
	// CreatePending records a freshly signed order. Re-signing an order id
	// resets it to pending.
	CreatePending(ctx context.Context, attempt *domain.PaymentAttempt) error

	// RecordResult settles an attempt from a trusted callback. It returns
	// ErrAttemptNotFound when the order was never signed here.
	RecordResult(ctx context.Context, result domain.VerificationResult) (*domain.PaymentAttempt, error)

	// RecordCallback appends an audit row for any callback, trusted or not
	RecordCallback(ctx context.Context, record *domain.CallbackRecord) error

	GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error)
}

// CallbackDeduplicator remembers callback deliveries that already ran hooks
type CallbackDeduplicator interface {
	// FirstDelivery reports true exactly once per key within ttl
	FirstDelivery(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so a redelivery runs hooks again
	Release(ctx context.Context, key string) error
}
