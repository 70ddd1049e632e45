package payment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9]+([._+-][a-zA-Z0-9]+)*@[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*\.[a-zA-Z]{2,}$`)
	plainWordsPattern = regexp.MustCompile(`^[a-zA-Z0-9]+(\s+[a-zA-Z0-9]+)*$`)
	repeatedSpace     = regexp.MustCompile(`\s{2,}`)
	phoneFormat       = regexp.MustCompile(`^[\+\d][\d\s\-()]*$`)
	phoneSeparators   = regexp.MustCompile(`[\s\-()]`)
	phoneDigits       = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
)

// validatedBillingFields must be plain words when present. BillToTelVoice is
// passed through unchecked and tel has its own format.
var validatedBillingFields = []string{
	domain.FieldBillToCompany,
	domain.FieldBillToStreet1,
	domain.FieldBillToStreet2,
	domain.FieldBillToStreet3,
	domain.FieldBillToCity,
	domain.FieldBillToStateProv,
	domain.FieldBillToPostalCode,
	domain.FieldBillToCountry,
}

var minimumAmount = decimal.NewFromInt(1)

// requestValidator implements the PaymentRequestValidator port
type requestValidator struct{}

// NewRequestValidator creates the checkout request validator
func NewRequestValidator() ports.PaymentRequestValidator {
	return requestValidator{}
}

// Validate checks req field by field and stops at the first problem
func (requestValidator) Validate(req *domain.PaymentRequest) error {
	if req == nil {
		return domain.NewValidationError("", "payment request is required")
	}

	checks := []func(*domain.PaymentRequest) error{
		validateFieldNames,
		validateAmount,
		validateRedirectURLs,
		validateEmail,
		validateBillToName,
		validateCurrencies,
		validateLanguage,
		validatePhone,
		validateOverrides,
		validateBillingFields,
	}
	for _, check := range checks {
		if err := check(req); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldNames(req *domain.PaymentRequest) error {
	return domain.CheckFieldNamesUnique(req.FieldNames())
}

func validateAmount(req *domain.PaymentRequest) error {
	raw := strings.TrimSpace(req.Amount.String())
	if raw == "" {
		return domain.NewFieldError(domain.ErrorCodeValidationMissingField, domain.FieldAmount, "amount is required")
	}
	if !domain.IsNumeric(raw) {
		return domain.NewFieldError(domain.ErrorCodeValidationAmountInvalid, domain.FieldAmount,
			fmt.Sprintf("invalid amount format %q: amount must contain only numeric characters", req.Amount))
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.NewFieldError(domain.ErrorCodeValidationAmountInvalid, domain.FieldAmount, "amount must be a valid number")
	}
	if amount.LessThan(minimumAmount) {
		return domain.NewFieldError(domain.ErrorCodeValidationAmountInvalid, domain.FieldAmount, "amount must be greater than or equal to 1")
	}
	return nil
}

func validateRedirectURLs(req *domain.PaymentRequest) error {
	for _, u := range []struct{ field, value string }{
		{domain.FieldOkURL, req.OkURL},
		{domain.FieldFailURL, req.FailURL},
	} {
		if u.value == "" {
			return domain.NewFieldError(domain.ErrorCodeValidationMissingField, u.field, "valid "+u.field+" is required")
		}
		if !domain.IsHTTPURL(u.value) {
			return domain.NewValidationError(u.field, "http/https protocol is required for "+u.field)
		}
	}
	return nil
}

func validateEmail(req *domain.PaymentRequest) error {
	if req.Email == "" {
		return domain.NewFieldError(domain.ErrorCodeValidationMissingField, domain.FieldEmail, "valid email is required")
	}
	if !emailPattern.MatchString(req.Email) {
		return domain.NewValidationError(domain.FieldEmail, "valid email is required")
	}
	return nil
}

func validateBillToName(req *domain.PaymentRequest) error {
	if strings.TrimSpace(req.BillToName) == "" {
		return domain.NewFieldError(domain.ErrorCodeValidationMissingField, domain.FieldBillToName, "BillToName is required")
	}
	if hasSpecialCharacters(req.BillToName) {
		return domain.NewValidationError(domain.FieldBillToName,
			"BillToName contains special characters or consecutive spaces which are not allowed")
	}
	return nil
}

func validateCurrencies(req *domain.PaymentRequest) error {
	currency := req.Currency.String()
	if currency == "" || !domain.IsSupportedCurrency(currency) {
		return domain.NewValidationError(domain.FieldCurrency,
			fmt.Sprintf("unsupported currency %q: use an ISO code such as MAD or 504", currency))
	}
	if !domain.IsMoroccanDirham(currency) {
		return domain.NewValidationError(domain.FieldCurrency,
			`the gateway only processes MAD: use currency "504" or "MAD" and show other currencies with amountCur and symbolCur`)
	}

	hasAmountCur := false
	if req.AmountCur != nil {
		raw := strings.TrimSpace(req.AmountCur.String())
		if raw != "" {
			if !domain.IsNumeric(raw) {
				return domain.NewFieldError(domain.ErrorCodeValidationAmountInvalid, domain.FieldAmountCur, "amountCur must be numeric")
			}
			hasAmountCur = decimal.RequireFromString(raw).IsPositive()
		}
	}
	hasSymbolCur := req.SymbolCur != nil && strings.TrimSpace(*req.SymbolCur) != ""

	if hasAmountCur != hasSymbolCur {
		return domain.NewValidationError(domain.FieldSymbolCur,
			"amountCur and symbolCur must be provided together, or both omitted for MAD only")
	}
	if hasSymbolCur {
		if !domain.IsSupportedCurrency(*req.SymbolCur) {
			return domain.NewValidationError(domain.FieldSymbolCur, fmt.Sprintf("invalid symbolCur %q", *req.SymbolCur))
		}
		if domain.IsMoroccanDirham(*req.SymbolCur) {
			return domain.NewValidationError(domain.FieldSymbolCur,
				"symbolCur must not be MAD since the processing currency is already MAD")
		}
	}
	return nil
}

func validateLanguage(req *domain.PaymentRequest) error {
	if req.Lang != "" && !domain.IsSupportedLanguage(req.Lang) {
		return domain.NewValidationError(domain.FieldLang, fmt.Sprintf("unsupported language %q", req.Lang))
	}
	return nil
}

func validatePhone(req *domain.PaymentRequest) error {
	if req.CustomFields[domain.FieldPhone] != "" {
		return domain.NewValidationError(domain.FieldPhone, "the phone field is not supported, use tel instead")
	}
	if tel := req.Billing[domain.FieldTel]; tel != "" && !isPhoneNumber(tel) {
		return domain.NewValidationError(domain.FieldTel, "invalid phone number format")
	}
	return nil
}

func validateOverrides(req *domain.PaymentRequest) error {
	nonEmpty := []struct {
		field string
		value *string
	}{
		{domain.FieldOrderID, req.OrderID},
		{domain.FieldRandom, req.Random},
		{domain.FieldHashAlgorithm, req.HashAlgorithm},
		{domain.FieldEncoding, req.Encoding},
	}
	for _, f := range nonEmpty {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return domain.NewValidationError(f.field, f.field+" must be a non-empty string when provided")
		}
	}

	if req.HashAlgorithm != nil && *req.HashAlgorithm != domain.HashAlgorithmVer3 {
		return domain.NewValidationError(domain.FieldHashAlgorithm, "hashAlgorithm must be 'ver3'")
	}
	if req.Encoding != nil && *req.Encoding != domain.EncodingUTF8 {
		return domain.NewValidationError(domain.FieldEncoding, "encoding must be 'UTF-8'")
	}
	return nil
}

func validateBillingFields(req *domain.PaymentRequest) error {
	for _, field := range validatedBillingFields {
		value, ok := req.Billing[field]
		if !ok {
			continue
		}
		if strings.TrimSpace(value) == "" {
			return domain.NewValidationError(field, field+" must be a non-empty string")
		}
		if hasSpecialCharacters(value) {
			return domain.NewValidationError(field, field+" contains special characters or consecutive spaces which are not allowed")
		}
	}
	return nil
}

// hasSpecialCharacters reports whether s is anything other than ASCII
// letters and digits in words separated by single whitespace
func hasSpecialCharacters(s string) bool {
	return repeatedSpace.MatchString(s) || !plainWordsPattern.MatchString(s)
}

func isPhoneNumber(phone string) bool {
	trimmed := strings.TrimSpace(phone)
	if !phoneFormat.MatchString(trimmed) {
		return false
	}
	return phoneDigits.MatchString(phoneSeparators.ReplaceAllString(trimmed, ""))
}
