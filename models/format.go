package models

import (
	"fmt"
	"math"
)

// CurrencySign is appended to every amount shown to a user.
const CurrencySign = "@"

// FormatBucks renders an amount the way balances are shown across the bank:
// whole bucks once the absolute value exceeds 9.99, one decimal below that.
func FormatBucks(v float64) string {
	if math.Abs(v) > 9.99 {
		return fmt.Sprintf("%d%s", int64(v), CurrencySign)
	}
	return fmt.Sprintf("%.1f%s", math.Round(v*10)/10, CurrencySign)
}

// FormatSignedBucks is FormatBucks with an explicit plus for positive amounts.
func FormatSignedBucks(v float64) string {
	if v > 0 {
		return "+" + FormatBucks(v)
	}
	return FormatBucks(v)
}
