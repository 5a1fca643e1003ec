package utils

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// currencySymbols maps ISO currency codes to display symbols. Unknown
// codes fall back to the code itself.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
	"CNY": "¥",
	"KRW": "₩",
	"CAD": "$",
	"AUD": "$",
	"BRL": "R$",
	"CHF": "CHF",
	"SGD": "$",
	"AED": "د.إ",
}

// DefaultCurrency is the display currency used before a profile sets one.
const DefaultCurrency = "USD"

// CurrencySymbol returns the display symbol for a currency code.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	if code == "" {
		return currencySymbols[DefaultCurrency]
	}
	return code
}

// IsSupportedCurrency reports whether the code has a known symbol.
func IsSupportedCurrency(code string) bool {
	_, ok := currencySymbols[code]
	return ok
}

// SupportedCurrencies returns the known currency codes, sorted.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(currencySymbols))
	for code := range currencySymbols {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// FormatAmount renders a signed amount at two decimal places with the
// currency symbol: FormatAmount(-12.3, "INR") yields "-₹12.30".
func FormatAmount(amount decimal.Decimal, code string) string {
	symbol := CurrencySymbol(code)
	if amount.IsNegative() {
		return fmt.Sprintf("-%s%s", symbol, amount.Neg().StringFixed(2))
	}
	return fmt.Sprintf("%s%s", symbol, amount.StringFixed(2))
}
