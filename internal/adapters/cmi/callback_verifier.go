package cmi

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/pkg/crypto"
)

// callbackVerifier implements the CallbackVerifier port
type callbackVerifier struct {
	config *Config
	logger *zap.Logger
}

// NewCallbackVerifier creates a verifier for callbacks signed with the store
// key in config
func NewCallbackVerifier(config *Config, logger *zap.Logger) (ports.CallbackVerifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &callbackVerifier{config: config, logger: logger}, nil
}

// Verify recomputes the callback digest and derives the verdict. Any failure,
// including a panic, becomes a rejected result.
func (v *callbackVerifier) Verify(params *domain.ParameterSet) (result domain.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Panic while verifying callback", zap.Any("panic", r))
			result = domain.RejectedResult(domain.RejectVerificationError, fmt.Errorf("%v", r))
		}
	}()

	oid := params.Get(domain.FieldOrderID)

	received, ok := params.First(domain.FieldHashUpper, domain.FieldHash)
	if !ok {
		v.logger.Warn("Callback rejected: hash not found", zap.String("oid", oid))
		return domain.RejectedResult(domain.RejectHashNotFound, nil)
	}

	working := params.Clone()
	working.Delete(domain.FieldHashUpper)
	working.Delete(domain.FieldHash)
	working.Delete(domain.FieldEncoding)

	calculated, err := GenerateHash(working, v.config.StoreKey)
	if err != nil {
		v.logger.Error("Callback rejected: could not recompute hash",
			zap.String("oid", oid),
			zap.Error(err),
		)
		return domain.RejectedResult(domain.RejectVerificationError, err)
	}

	if !crypto.ConstantTimeEqual(received, calculated) {
		v.logger.Warn("Callback rejected: hash mismatch",
			zap.String("oid", oid),
			zap.String("received_prefix", DigestPrefix(received)),
			zap.String("calculated_prefix", DigestPrefix(calculated)),
		)
		return domain.RejectedResult(domain.RejectTampering, nil)
	}

	order, err := orderReference(params)
	if err != nil {
		v.logger.Error("Callback rejected: unreadable order data",
			zap.String("oid", oid),
			zap.Error(err),
		)
		return domain.RejectedResult(domain.RejectVerificationError, err)
	}

	returnCode, _ := params.First(domain.FieldProcReturnCode, domain.FieldReturnCode)
	if returnCode == domain.ApprovedReturnCode {
		v.logger.Info("Callback verified: payment approved",
			zap.String("oid", order.OrderID),
			zap.String("transaction_id", order.TransactionID),
			zap.String("confirmation_mode", string(v.config.ConfirmationMode)),
		)
		return domain.ApprovedResult(v.approvalToken(), order)
	}

	errMsg, _ := params.First(domain.FieldErrMsgUpper, domain.FieldErrMsg)
	v.logger.Info("Callback verified: payment failed",
		zap.String("oid", order.OrderID),
		zap.String("return_code", returnCode),
		zap.String("error_message", errMsg),
	)
	return domain.FailedResult(returnCode, errMsg, order)
}

func (v *callbackVerifier) approvalToken() domain.AckToken {
	if v.config.ConfirmationMode == domain.ConfirmationModeManual {
		return domain.AckApproved
	}
	return domain.AckPostAuth
}

// orderReference reads the order data of a verified callback. An absent
// amount is reported as zero; only an amount that does not parse is an error.
func orderReference(params *domain.ParameterSet) (*domain.OrderReference, error) {
	amount := decimal.Zero
	if raw := strings.TrimSpace(params.Get(domain.FieldAmount)); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("amount %q is not a number", raw)
		}
		amount = parsed
	}

	transactionID, _ := params.First(domain.FieldTransIDUpper, domain.FieldTransID, domain.FieldOrderID)

	return &domain.OrderReference{
		OrderID:       params.Get(domain.FieldOrderID),
		Amount:        amount,
		Currency:      params.Get(domain.FieldCurrency),
		TransactionID: transactionID,
	}, nil
}
