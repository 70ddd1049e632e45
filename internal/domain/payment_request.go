package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Scalar is a request value that may arrive as a JSON string, number or bool.
// Numbers keep their transmitted text.
type Scalar string

// UnmarshalJSON accepts any JSON scalar. null decodes to "".
func (s *Scalar) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	str, err := CoerceValue(v)
	if err != nil {
		return err
	}
	*s = Scalar(str)
	return nil
}

// String returns the raw text
func (s Scalar) String() string {
	return string(s)
}

// PaymentRequest carries the merchant-supplied business fields of one
// checkout. Optional fields are nil when not provided.
type PaymentRequest struct {
	Amount     Scalar
	Currency   Scalar
	OkURL      string
	FailURL    string
	Email      string
	BillToName string

	OrderID       *string
	Random        *string
	Lang          string
	HashAlgorithm *string
	Encoding      *string
	AutoRedirect  *bool
	AmountCur     *Scalar
	SymbolCur     *string

	// Billing holds the optional billing fields and tel, keyed by exact field name
	Billing map[string]string

	// CustomFields are passed through to the gateway verbatim
	CustomFields map[string]string
}

// FieldNames lists every provided field name. Custom fields spelled exactly
// like a standard field are left out because they are ignored.
func (r *PaymentRequest) FieldNames() []string {
	names := []string{FieldAmount, FieldCurrency, FieldOkURL, FieldFailURL, FieldEmail, FieldBillToName}
	optional := []struct {
		name    string
		present bool
	}{
		{FieldOrderID, r.OrderID != nil},
		{FieldRandom, r.Random != nil},
		{FieldLang, r.Lang != ""},
		{FieldHashAlgorithm, r.HashAlgorithm != nil},
		{FieldEncoding, r.Encoding != nil},
		{FieldAutoRedirect, r.AutoRedirect != nil},
		{FieldAmountCur, r.AmountCur != nil},
		{FieldSymbolCur, r.SymbolCur != nil},
	}
	for _, o := range optional {
		if o.present {
			names = append(names, o.name)
		}
	}
	for _, name := range sortedKeys(r.Billing) {
		names = append(names, name)
	}
	for _, name := range sortedKeys(r.CustomFields) {
		if !IsStandardRequestField(name) {
			names = append(names, name)
		}
	}
	return names
}

// MarshalJSON emits the request with gateway field names
func (r PaymentRequest) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 16)
	for name, value := range r.CustomFields {
		m[name] = value
	}
	for name, value := range r.Billing {
		m[name] = value
	}
	m[FieldAmount] = string(r.Amount)
	m[FieldCurrency] = string(r.Currency)
	m[FieldOkURL] = r.OkURL
	m[FieldFailURL] = r.FailURL
	m[FieldEmail] = r.Email
	m[FieldBillToName] = r.BillToName
	if r.OrderID != nil {
		m[FieldOrderID] = *r.OrderID
	}
	if r.Random != nil {
		m[FieldRandom] = *r.Random
	}
	if r.Lang != "" {
		m[FieldLang] = r.Lang
	}
	if r.HashAlgorithm != nil {
		m[FieldHashAlgorithm] = *r.HashAlgorithm
	}
	if r.Encoding != nil {
		m[FieldEncoding] = *r.Encoding
	}
	if r.AutoRedirect != nil {
		m[FieldAutoRedirect] = *r.AutoRedirect
	}
	if r.AmountCur != nil {
		m[FieldAmountCur] = string(*r.AmountCur)
	}
	if r.SymbolCur != nil {
		m[FieldSymbolCur] = *r.SymbolCur
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a flat JSON object. Field names are matched exactly;
// names that differ only in case are rejected before any field is read.
func (r *PaymentRequest) UnmarshalJSON(data []byte) error {
	raw, err := decodeObjectFields(data, "payment request")
	if err != nil {
		return err
	}

	names := sortedKeys(raw)
	if err := checkFoldUnique(names); err != nil {
		return err
	}

	req := PaymentRequest{
		Billing:      make(map[string]string),
		CustomFields: make(map[string]string),
	}
	for _, name := range names {
		value, err := decodeScalar(name, raw[name])
		if err != nil {
			return err
		}

		switch name {
		case FieldAmount:
			req.Amount = Scalar(deref(value))
		case FieldCurrency:
			req.Currency = Scalar(deref(value))
		case FieldOkURL:
			req.OkURL = deref(value)
		case FieldFailURL:
			req.FailURL = deref(value)
		case FieldEmail:
			req.Email = deref(value)
		case FieldBillToName:
			req.BillToName = deref(value)
		case FieldLang:
			req.Lang = deref(value)
		case FieldOrderID:
			req.OrderID = value
		case FieldRandom:
			req.Random = value
		case FieldHashAlgorithm:
			req.HashAlgorithm = value
		case FieldEncoding:
			req.Encoding = value
		case FieldSymbolCur:
			req.SymbolCur = value
		case FieldAmountCur:
			if value != nil {
				s := Scalar(*value)
				req.AmountCur = &s
			}
		case FieldAutoRedirect:
			var b *bool
			if err := json.Unmarshal(raw[name], &b); err != nil {
				return NewValidationError(name, "AutoRedirect must be a boolean (true or false)")
			}
			req.AutoRedirect = b
		default:
			if value == nil {
				continue
			}
			if isOptionalBillingField(name) {
				req.Billing[name] = *value
			} else {
				req.CustomFields[name] = *value
			}
		}
	}

	*r = req
	return nil
}

func decodeScalar(name string, msg json.RawMessage) (*string, error) {
	var s *Scalar
	if err := json.Unmarshal(msg, &s); err != nil {
		return nil, NewValidationError(name, fmt.Sprintf("must be a scalar value: %v", err))
	}
	if s == nil {
		return nil, nil
	}
	v := string(*s)
	return &v, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isOptionalBillingField(name string) bool {
	for _, f := range OptionalBillingFields {
		if f == name {
			return true
		}
	}
	return false
}

// CheckFieldNamesUnique rejects names that collide once case is ignored
func CheckFieldNamesUnique(names []string) error {
	return checkFoldUnique(names)
}

func checkFoldUnique(names []string) error {
	seen := make(map[string]string, len(names))
	var duplicates, offending []string
	for _, name := range names {
		key := strings.ToLower(name)
		if first, ok := seen[key]; ok {
			duplicates = append(duplicates, fmt.Sprintf("%s/%s", first, name))
			offending = append(offending, name)
			continue
		}
		seen[key] = name
	}
	if len(duplicates) == 0 {
		return nil
	}
	sort.Strings(duplicates)
	sort.Strings(offending)
	return NewFieldError(ErrorCodeValidationDuplicateField, offending[0],
		fmt.Sprintf("duplicate fields detected (case-insensitive): %s", strings.Join(duplicates, ", ")))
}
