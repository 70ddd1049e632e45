package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/services/callbackguard"
	pkgerrors "github.com/integrationcmi/cmi/pkg/errors"
	"github.com/integrationcmi/cmi/pkg/observability"
)

// CallbackService wraps a CallbackVerifier with metrics and supplies the
// success and failure hooks that settle the ledger
type CallbackService struct {
	verifier ports.CallbackVerifier
	ledger   ports.PaymentAttemptRepository
	dedup    ports.CallbackDeduplicator
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewCallbackService creates a callback service. ledger and dedup may be nil.
func NewCallbackService(
	verifier ports.CallbackVerifier,
	ledger ports.PaymentAttemptRepository,
	dedup ports.CallbackDeduplicator,
	dedupTTL time.Duration,
	logger *zap.Logger,
) *CallbackService {
	return &CallbackService{
		verifier: verifier,
		ledger:   ledger,
		dedup:    dedup,
		dedupTTL: dedupTTL,
		logger:   logger,
	}
}

// Verify implements ports.CallbackVerifier
func (s *CallbackService) Verify(params *domain.ParameterSet) domain.VerificationResult {
	start := time.Now()
	result := s.verifier.Verify(params)

	category := ""
	currency := ""
	amount := 0.0
	if !result.Rejected() {
		category = string(pkgerrors.CategorizeReturnCode(returnCodeOf(result)))
	}
	if result.Order != nil {
		currency = result.Order.Currency
		amount = result.Order.Amount.InexactFloat64()
	}
	observability.RecordCallback(string(result.Status), string(result.RejectReason), category, currency, amount, time.Since(start))

	return result
}

// OnSuccess settles an approved attempt
func (s *CallbackService) OnSuccess(ctx context.Context, result domain.VerificationResult) error {
	return s.settle(ctx, result)
}

// OnFailure settles a declined attempt or audits a rejected callback
func (s *CallbackService) OnFailure(ctx context.Context, result domain.VerificationResult) error {
	if result.Rejected() {
		s.audit(ctx, result)
		return nil
	}

	perr := pkgerrors.NewProcessorError(orderIDOf(result), result.ErrorCode, result.ErrorMessage)
	s.logger.Info("Payment declined",
		zap.String("oid", perr.OrderID),
		zap.String("code", perr.Code),
		zap.String("category", string(perr.Category)),
		zap.Bool("retriable", perr.IsRetriable),
	)
	return s.settle(ctx, result)
}

func (s *CallbackService) settle(ctx context.Context, result domain.VerificationResult) error {
	key := callbackguard.DeliveryKey(result)
	if s.dedup != nil && key != "" {
		first, err := s.dedup.FirstDelivery(ctx, key, s.dedupTTL)
		switch {
		case err != nil:
			s.logger.Warn("Callback guard unavailable, processing anyway", zap.Error(err))
			key = ""
		case !first:
			observability.RecordDuplicateCallback()
			return nil
		}
	}

	if err := s.recordResult(ctx, result); err != nil {
		if s.dedup != nil && key != "" {
			if rerr := s.dedup.Release(ctx, key); rerr != nil {
				s.logger.Warn("Failed to release callback claim", zap.String("key", key), zap.Error(rerr))
			}
		}
		return err
	}
	return nil
}

func (s *CallbackService) recordResult(ctx context.Context, result domain.VerificationResult) error {
	if s.ledger == nil {
		return nil
	}

	attempt, err := s.ledger.RecordResult(ctx, result)
	if err != nil {
		if domain.IsNotFoundError(err) {
			s.logger.Warn("Trusted callback for unknown order", zap.String("oid", orderIDOf(result)))
			s.audit(ctx, result)
			return nil
		}
		observability.RecordLedgerError("record_result")
		s.logger.Error("Failed to record callback result",
			zap.String("oid", orderIDOf(result)),
			zap.Error(err),
		)
		return err
	}

	if result.Order != nil && !result.Order.Amount.IsZero() && !attempt.Amount.Equal(result.Order.Amount) {
		s.logger.Warn("Callback amount differs from signed amount",
			zap.String("oid", attempt.OrderID),
			zap.String("signed_amount", attempt.Amount.String()),
			zap.String("callback_amount", result.Order.Amount.String()),
		)
	}
	return nil
}

// audit stores a callback that settles nothing. Failures are only logged.
func (s *CallbackService) audit(ctx context.Context, result domain.VerificationResult) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.RecordCallback(ctx, domain.NewCallbackRecord(result)); err != nil {
		observability.RecordLedgerError("record_callback")
		s.logger.Warn("Failed to audit callback", zap.Error(err))
	}
}

func orderIDOf(result domain.VerificationResult) string {
	if result.Order == nil {
		return ""
	}
	return result.Order.OrderID
}

func returnCodeOf(result domain.VerificationResult) string {
	if result.Success() {
		return domain.ApprovedReturnCode
	}
	return result.ErrorCode
}
