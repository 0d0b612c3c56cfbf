package domain

import "strings"

// BaseCurrencyCode is the currency every stored rate is expressed in.
const BaseCurrencyCode = "KRW"

var supportedCurrencyCodes = []string{
	// majors
	"USD", "JPY", "EUR", "CNY", "GBP", "AUD", "CAD", "CHF", "SGD", "HKD", "THB", "VND", "INR", "BRL",
	"RUB", "MXN", "ZAR", "TRY", "PLN", "CZK", "HUF", "NOK", "SEK", "DKK", "KRW",
	// asia / middle east
	"TWD", "MYR", "PHP", "IDR", "NZD", "ILS", "AED", "QAR", "KWD", "BHD", "OMR", "JOD", "LBP", "PKR",
	"BDT", "LKR", "NPR", "AFN", "KZT", "UZS", "KGS", "TJS", "TMT",
	// europe
	"ISK", "RON", "BGN", "HRK", "RSD", "UAH", "BYN",
	// americas
	"ARS", "CLP", "COP", "PEN", "UYU", "BOB", "PYG", "VES",
	// africa
	"EGP", "MAD", "TND", "NGN", "KES", "UGX", "TZS",
}

var supportedCurrencies = func() map[string]struct{} {
	m := make(map[string]struct{}, len(supportedCurrencyCodes))
	for _, c := range supportedCurrencyCodes {
		m[c] = struct{}{}
	}
	return m
}()

var currencyNames = map[string]string{
	"USD": "US Dollar",
	"JPY": "Japanese Yen",
	"EUR": "Euro",
	"GBP": "British Pound",
	"CNY": "Chinese Yuan",
	"AUD": "Australian Dollar",
	"CAD": "Canadian Dollar",
	"CHF": "Swiss Franc",
	"HKD": "Hong Kong Dollar",
	"SGD": "Singapore Dollar",
}

// NormalizeCurrencyCode trims and upper-cases a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsSupportedCurrency reports whether code (case-insensitive) is in the supported set.
func IsSupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[NormalizeCurrencyCode(code)]
	return ok
}

// SupportedCurrencyCodes returns a copy of the supported set in declaration order.
func SupportedCurrencyCodes() []string {
	out := make([]string, len(supportedCurrencyCodes))
	copy(out, supportedCurrencyCodes)
	return out
}

// CurrencyName returns the display name for code, falling back to the code itself.
func CurrencyName(code string) string {
	if name, ok := currencyNames[code]; ok {
		return name
	}
	return code
}
