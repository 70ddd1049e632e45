package domain

import "strings"

// Currency describes an ISO 4217 currency accepted by the gateway
type Currency struct {
	Code     string // alphabetic code, e.g. "MAD"
	Numeric  string // numeric code, e.g. "504"
	Name     string
	Decimals int
}

// MoroccanDirham is the only settlement currency the gateway processes
const MoroccanDirham = "MAD"

var supportedCurrencies = []Currency{
	{"USD", "840", "United States Dollar", 2},
	{"EUR", "978", "Euro", 2},
	{"JPY", "392", "Japanese Yen", 0},
	{"GBP", "826", "British Pound Sterling", 2},
	{"CNY", "156", "Chinese Yuan", 2},
	{"AUD", "036", "Australian Dollar", 2},
	{"CAD", "124", "Canadian Dollar", 2},
	{"CHF", "756", "Swiss Franc", 2},
	{"HKD", "344", "Hong Kong Dollar", 2},
	{"SGD", "702", "Singapore Dollar", 2},
	{"SEK", "752", "Swedish Krona", 2},
	{"KRW", "410", "South Korean Won", 0},
	{"NOK", "578", "Norwegian Krone", 2},
	{"NZD", "554", "New Zealand Dollar", 2},
	{"INR", "356", "Indian Rupee", 2},
	{"MXN", "484", "Mexican Peso", 2},
	{"TWD", "901", "New Taiwan Dollar", 2},
	{"ZAR", "710", "South African Rand", 2},
	{"BRL", "986", "Brazilian Real", 2},
	{"DKK", "208", "Danish Krone", 2},
	{"PLN", "985", "Polish Zloty", 2},
	{"THB", "764", "Thai Baht", 2},
	{"IDR", "360", "Indonesian Rupiah", 2},
	{"HUF", "348", "Hungarian Forint", 2},
	{"CZK", "203", "Czech Koruna", 2},
	{"ILS", "376", "Israeli New Shekel", 2},
	{"CLP", "152", "Chilean Peso", 0},
	{"PHP", "608", "Philippine Peso", 2},
	{"AED", "784", "UAE Dirham", 2},
	{"COP", "170", "Colombian Peso", 2},
	{"MAD", "504", "Moroccan Dirham", 2},
	{"SAR", "682", "Saudi Riyal", 2},
	{"TRY", "949", "Turkish Lira", 2},
	{"EGP", "818", "Egyptian Pound", 2},
}

var currencyIndex = func() map[string]Currency {
	idx := make(map[string]Currency, len(supportedCurrencies)*2)
	for _, c := range supportedCurrencies {
		idx[c.Code] = c
		idx[c.Numeric] = c
	}
	return idx
}()

// LookupCurrency resolves an alphabetic ("mad") or numeric ("504") code
func LookupCurrency(value string) (Currency, bool) {
	c, ok := currencyIndex[strings.ToUpper(strings.TrimSpace(value))]
	return c, ok
}

// NormalizeCurrency returns the numeric code, or "" when unsupported
func NormalizeCurrency(value string) string {
	c, _ := LookupCurrency(value)
	return c.Numeric
}

// NormalizeCurrencyCode returns the alphabetic code, or "" when unsupported
func NormalizeCurrencyCode(value string) string {
	c, _ := LookupCurrency(value)
	return c.Code
}

// IsSupportedCurrency reports whether value names a known currency
func IsSupportedCurrency(value string) bool {
	_, ok := LookupCurrency(value)
	return ok
}

// IsMoroccanDirham accepts "MAD" or "504" in any case
func IsMoroccanDirham(value string) bool {
	c, ok := LookupCurrency(value)
	return ok && c.Code == MoroccanDirham
}

// SupportedCurrencies returns a copy of the currency table
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}
