package domain

// Request and callback field names, spelled exactly as the gateway expects.
const (
	FieldClientID      = "clientid"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldOrderID       = "oid"
	FieldRandom        = "rnd"
	FieldEmail         = "email"
	FieldOkURL         = "okUrl"
	FieldFailURL       = "failUrl"
	FieldStoreType     = "storetype"
	FieldTranType      = "trantype"
	FieldLang          = "lang"
	FieldShopURL       = "shopurl"
	FieldHashAlgorithm = "hashAlgorithm"
	FieldEncoding      = "encoding"
	FieldCallbackURL   = "callbackURL"
	FieldAutoRedirect  = "AutoRedirect"
	FieldAmountCur     = "amountCur"
	FieldSymbolCur     = "symbolCur"
	FieldTel           = "tel"
	FieldPhone         = "phone"
	FieldHash          = "hash"
	FieldHashUpper     = "HASH"

	FieldBillToName       = "BillToName"
	FieldBillToCompany    = "BillToCompany"
	FieldBillToStreet1    = "BillToStreet1"
	FieldBillToStreet2    = "BillToStreet2"
	FieldBillToStreet3    = "BillToStreet3"
	FieldBillToCity       = "BillToCity"
	FieldBillToStateProv  = "BillToStateProv"
	FieldBillToPostalCode = "BillToPostalCode"
	FieldBillToCountry    = "BillToCountry"
	FieldBillToTelVoice   = "BillToTelVoice"

	FieldProcReturnCode = "ProcReturnCode"
	FieldReturnCode     = "ReturnCode"
	FieldTransIDUpper   = "TransId"
	FieldTransID        = "transId"
	FieldErrMsgUpper    = "ErrMsg"
	FieldErrMsg         = "errMsg"
)

// Fixed values of the ver3 scheme
const (
	HashAlgorithmVer3 = "ver3"
	EncodingUTF8      = "UTF-8"
)

// HashSanitizedFields are cleaned again while hashing. Matching is exact.
var HashSanitizedFields = map[string]struct{}{
	FieldBillToName:       {},
	FieldBillToCompany:    {},
	FieldBillToStreet1:    {},
	FieldBillToCity:       {},
	FieldBillToStateProv:  {},
	FieldBillToPostalCode: {},
	FieldBillToCountry:    {},
}

// OptionalBillingFields are copied into a request when provided, sanitized to
// OptionalFieldMaxLength runes.
var OptionalBillingFields = []string{
	FieldBillToCompany,
	FieldBillToStreet1,
	FieldBillToStreet2,
	FieldBillToStreet3,
	FieldBillToCity,
	FieldBillToStateProv,
	FieldBillToPostalCode,
	FieldBillToCountry,
	FieldBillToTelVoice,
	FieldTel,
}

// StandardRequestFields are the names a merchant sets through typed request
// fields. A custom field with one of these exact names is ignored.
var StandardRequestFields = map[string]struct{}{
	FieldAmount:        {},
	FieldOrderID:       {},
	FieldOkURL:         {},
	FieldFailURL:       {},
	FieldEmail:         {},
	FieldBillToName:    {},
	FieldRandom:        {},
	FieldEncoding:      {},
	FieldCurrency:      {},
	FieldLang:          {},
	FieldHashAlgorithm: {},
	FieldAutoRedirect:  {},
	FieldAmountCur:     {},
	FieldSymbolCur:     {},

	FieldBillToCompany:    {},
	FieldBillToStreet1:    {},
	FieldBillToStreet2:    {},
	FieldBillToStreet3:    {},
	FieldBillToCity:       {},
	FieldBillToStateProv:  {},
	FieldBillToPostalCode: {},
	FieldBillToCountry:    {},
	FieldBillToTelVoice:   {},
	FieldTel:              {},
}

// Length caps, in runes
const (
	HashSanitizeMaxLength  = 255
	BillToNameMaxLength    = 50
	OptionalFieldMaxLength = 100
	EmailMaxLength         = 100
)

// IsStandardRequestField reports whether name is an exact standard field name
func IsStandardRequestField(name string) bool {
	_, ok := StandardRequestFields[name]
	return ok
}
