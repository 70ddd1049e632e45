package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/pkg/observability"
)

// CheckoutResult is what a merchant front end needs to redirect the buyer
type CheckoutResult struct {
	GatewayURL string               `json:"gateway_url"`
	Params     *domain.ParameterSet `json:"params"`
}

// CheckoutForm is a rendered auto-submit page and the CSP nonce it expects
type CheckoutForm struct {
	HTML  []byte
	Nonce string
}

// CheckoutService signs checkout requests and records them in the ledger
type CheckoutService struct {
	signer ports.RequestSigner
	forms  ports.FormRenderer
	ledger ports.PaymentAttemptRepository
	logger *zap.Logger
}

// NewCheckoutService creates a checkout service. ledger may be nil, in which
// case signed orders are not recorded.
func NewCheckoutService(
	signer ports.RequestSigner,
	forms ports.FormRenderer,
	ledger ports.PaymentAttemptRepository,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		signer: signer,
		forms:  forms,
		ledger: ledger,
		logger: logger,
	}
}

// Checkout signs req and records a pending attempt for its order id
func (s *CheckoutService) Checkout(ctx context.Context, req *domain.PaymentRequest) (*CheckoutResult, error) {
	params, err := s.signer.Build(req)
	if err != nil {
		if domain.IsValidationError(err) {
			observability.RecordSignedRequest("invalid")
			s.logger.Info("Checkout request rejected",
				zap.String("field", domain.GetErrorField(err)),
				zap.String("code", string(domain.GetErrorCode(err))),
			)
		} else {
			observability.RecordSignedRequest("error")
			s.logger.Error("Failed to sign checkout request", zap.Error(err))
		}
		return nil, err
	}

	if err := s.recordPending(ctx, params); err != nil {
		observability.RecordSignedRequest("error")
		return nil, err
	}

	observability.RecordSignedRequest("signed")
	return &CheckoutResult{GatewayURL: s.forms.GatewayURL(), Params: params}, nil
}

// CheckoutForm signs req and renders the auto-submitting form
func (s *CheckoutService) CheckoutForm(ctx context.Context, req *domain.PaymentRequest) (*CheckoutForm, error) {
	result, err := s.Checkout(ctx, req)
	if err != nil {
		return nil, err
	}

	nonce, err := cmi.NewNonce()
	if err != nil {
		return nil, err
	}
	html, err := s.forms.Render(result.Params, nonce)
	if err != nil {
		return nil, err
	}
	return &CheckoutForm{HTML: html, Nonce: nonce}, nil
}

// GetAttempt returns the ledger entry for orderID
func (s *CheckoutService) GetAttempt(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	if s.ledger == nil {
		return nil, domain.ErrAttemptNotFound
	}
	return s.ledger.GetByOrderID(ctx, orderID)
}

func (s *CheckoutService) recordPending(ctx context.Context, params *domain.ParameterSet) error {
	if s.ledger == nil {
		return nil
	}

	amount, err := decimal.NewFromString(params.Get(domain.FieldAmount))
	if err != nil {
		return fmt.Errorf("signed amount: %w", err)
	}
	attempt := &domain.PaymentAttempt{
		OrderID:  params.Get(domain.FieldOrderID),
		Amount:   amount,
		Currency: params.Get(domain.FieldCurrency),
	}
	if err := s.ledger.CreatePending(ctx, attempt); err != nil {
		if domain.IsValidationError(err) {
			s.logger.Warn("Checkout refused for settled order", zap.String("oid", attempt.OrderID))
			return err
		}
		observability.RecordLedgerError("create_pending")
		s.logger.Error("Failed to record pending payment attempt",
			zap.String("oid", attempt.OrderID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("Pending payment attempt recorded",
		zap.String("oid", attempt.OrderID),
		zap.String("attempt_id", attempt.ID),
	)
	return nil
}
