package cmi

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
)

// requestSigner implements the RequestSigner port
type requestSigner struct {
	config    *Config
	validator ports.PaymentRequestValidator
	ids       idGenerator
	logger    *zap.Logger
}

// NewRequestSigner creates a signer for the store described by config.
// config is validated here and must not be modified afterwards.
func NewRequestSigner(config *Config, validator ports.PaymentRequestValidator, logger *zap.Logger) (ports.RequestSigner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if validator == nil {
		return nil, fmt.Errorf("payment request validator is required")
	}
	return &requestSigner{
		config:    config,
		validator: validator,
		ids:       defaultIDGenerator(),
		logger:    logger,
	}, nil
}

// Build validates req, assembles the gateway fields and signs them
func (s *requestSigner) Build(req *domain.PaymentRequest) (*domain.ParameterSet, error) {
	if req == nil {
		return nil, domain.NewValidationError("", "payment request is required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	params, err := s.assemble(req)
	if err != nil {
		return nil, err
	}

	digest, err := GenerateHash(params, s.config.StoreKey)
	if err != nil {
		s.logger.Error("Failed to sign payment request",
			zap.String("oid", params.Get(domain.FieldOrderID)),
			zap.Error(err),
		)
		return nil, err
	}
	if err := params.Set(domain.FieldHash, digest); err != nil {
		return nil, err
	}

	s.logger.Info("Built signed payment request",
		zap.String("oid", params.Get(domain.FieldOrderID)),
		zap.String("amount", params.Get(domain.FieldAmount)),
		zap.String("currency", params.Get(domain.FieldCurrency)),
		zap.Int("field_count", params.Len()),
		zap.String("hash_prefix", DigestPrefix(digest)),
	)

	return params, nil
}

func (s *requestSigner) assemble(req *domain.PaymentRequest) (*domain.ParameterSet, error) {
	oid := valueOr(req.OrderID, "")
	if oid == "" {
		generated, err := s.ids.OrderID()
		if err != nil {
			return nil, err
		}
		oid = generated
	}
	rnd := valueOr(req.Random, "")
	if rnd == "" {
		generated, err := s.ids.Nonce()
		if err != nil {
			return nil, err
		}
		rnd = generated
	}

	amount, err := formatAmount(domain.FieldAmount, req.Amount.String())
	if err != nil {
		return nil, err
	}

	lang := req.Lang
	if lang == "" {
		lang = domain.DefaultLanguage
	}

	params := domain.NewParameterSet()
	fields := []struct {
		name  string
		value string
	}{
		{domain.FieldClientID, s.config.ClientID},
		{domain.FieldAmount, amount},
		{domain.FieldCurrency, domain.NormalizeCurrency(req.Currency.String())},
		{domain.FieldOrderID, oid},
		{domain.FieldRandom, rnd},
		{domain.FieldEmail, SanitizeEmail(req.Email)},
		{domain.FieldBillToName, SanitizeString(req.BillToName, domain.BillToNameMaxLength)},
		{domain.FieldOkURL, req.OkURL},
		{domain.FieldFailURL, req.FailURL},
		{domain.FieldStoreType, strings.ToLower(string(s.config.StoreType))},
		{domain.FieldTranType, string(s.config.TranType)},
		{domain.FieldLang, domain.NormalizeLanguage(lang)},
		{domain.FieldShopURL, s.config.ShopURL},
		{domain.FieldHashAlgorithm, valueOr(req.HashAlgorithm, domain.HashAlgorithmVer3)},
		{domain.FieldEncoding, valueOr(req.Encoding, domain.EncodingUTF8)},
	}
	for _, f := range fields {
		if err := params.Set(f.name, f.value); err != nil {
			return nil, err
		}
	}

	if s.config.CallbackURL != "" {
		if err := params.Set(domain.FieldCallbackURL, s.config.CallbackURL); err != nil {
			return nil, err
		}
	}

	for _, name := range domain.OptionalBillingFields {
		if v := req.Billing[name]; v != "" {
			if err := params.Set(name, SanitizeString(v, domain.OptionalFieldMaxLength)); err != nil {
				return nil, err
			}
		}
	}

	autoRedirect := req.AutoRedirect != nil && *req.AutoRedirect
	if err := params.Set(domain.FieldAutoRedirect, strconv.FormatBool(autoRedirect)); err != nil {
		return nil, err
	}

	if req.AmountCur != nil {
		if d, err := decimal.NewFromString(strings.TrimSpace(req.AmountCur.String())); err == nil && d.IsPositive() {
			if err := params.Set(domain.FieldAmountCur, d.StringFixed(2)); err != nil {
				return nil, err
			}
		}
	}
	if req.SymbolCur != nil {
		if err := params.Set(domain.FieldSymbolCur, domain.NormalizeCurrencyCode(*req.SymbolCur)); err != nil {
			return nil, err
		}
	}

	if err := addCustomFields(params, req.CustomFields); err != nil {
		return nil, err
	}

	return params, nil
}

// addCustomFields passes merchant fields through unchanged. Exact standard
// names and names already assembled are skipped; a case variant of an
// assembled name is an error.
func addCustomFields(params *domain.ParameterSet, custom map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(custom)) {
		if domain.IsStandardRequestField(name) || params.Has(name) {
			continue
		}
		if strings.EqualFold(name, domain.FieldHash) {
			return domain.NewFieldError(domain.ErrorCodeValidationDuplicateField, name, "field conflicts with hash")
		}
		if err := params.Set(name, custom[name]); err != nil {
			return err
		}
	}
	return nil
}

// formatAmount renders a numeric amount with exactly two decimals
func formatAmount(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !domain.IsNumeric(raw) {
		return "", domain.NewFieldError(domain.ErrorCodeValidationAmountInvalid, field,
			fmt.Sprintf("invalid amount format %q: use digits and an optional decimal point", raw))
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", domain.NewFieldError(domain.ErrorCodeValidationAmountInvalid, field, "amount could not be parsed")
	}
	return d.StringFixed(2), nil
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
