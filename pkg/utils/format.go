// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"tradecover/internal/models"
)

// FormatOptionSymbol renders a contract reference as the canonical option
// symbol string, e.g. "AAPL_C_150_2026-09-18". Strikes drop trailing
// zeros so 150.00 and 150 format identically.
func FormatOptionSymbol(symbol string, kind models.OptionKind, strike float64, expiry string) string {
	k := "C"
	if kind == models.Put {
		k = "P"
	}
	return fmt.Sprintf("%s_%s_%s_%s", symbol, k, formatStrike(strike), expiry)
}

// FormatLegSymbol renders a leg reference as an option symbol.
func FormatLegSymbol(leg models.LegRef) string {
	return FormatOptionSymbol(leg.Symbol, leg.Kind, leg.Strike, leg.Expiry)
}

func formatStrike(strike float64) string {
	s := strconv.FormatFloat(strike, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// FormatCurrency formats a dollar amount with thousands separators.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := groupThousands(parts[0])

	result := "$" + intPart + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	return groupThousands(s[:n-3]) + "," + s[n-3:]
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats P&L with a leading sign for gains.
func FormatPnL(pnl float64) string {
	formatted := FormatCurrency(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatQuantity formats a quantity with commas.
func FormatQuantity(qty int64) string {
	return groupThousands(fmt.Sprintf("%d", qty))
}
