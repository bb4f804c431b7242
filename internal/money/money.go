// Package money holds the rand helpers shared by pricing, checkout and the
// HTTP layer. Amounts are decimal rands excluding VAT unless stated.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts leave the service as plain JSON numbers, the same form the
// snapshot keys and the quote API use.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat reads a JSON wire amount back into a decimal.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Float converts for JSON wire shapes that expect plain numbers.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// Format renders whole rands, e.g. "R 1 995".
func Format(d decimal.Decimal) string {
	return "R " + group(d.Round(0).StringFixed(0))
}

// FormatMonthly renders whole rands per month, e.g. "R 215 /mo".
func FormatMonthly(d decimal.Decimal) string {
	return Format(d) + " /mo"
}

// FormatCents renders rands with two decimals, e.g. "R1 995.00".
func FormatCents(d decimal.Decimal) string {
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	return "R" + group(whole) + "." + frac
}

func group(whole string) string {
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")
	var b strings.Builder
	pre := len(whole) % 3
	if pre > 0 {
		b.WriteString(whole[:pre])
	}
	for i := pre; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(whole[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
