package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyVND formats an amount in Vietnamese dong.
// Example: 400000 -> "400.000 ₫"
func FormatCurrencyVND(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	formatted := amount.StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	integerPart, decimalPart := parts[0], parts[1]

	// thousands separators
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	result := sign + strings.Join(groups, ".")
	if decimalPart != "00" {
		result += "," + decimalPart
	}
	return result + " ₫"
}
