package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type MonthlyKind string

const (
	MonthlyKindService MonthlyKind = "service"
	MonthlyKindCalls   MonthlyKind = "calls"
)

// Well-known monthly line names.
const (
	MonthlyPlatform      = "Cloud PBX Platform"
	MonthlyExtensionFee  = "Extension Fee"
	MonthlyCalls         = "Calls"
	MonthlyVirtualNumber = "Virtual Number"
	MonthlyNumberHosting = "Number Hosting (Ported)"
)

const PayAsYouGo = "Pay-as-you-go"

// MonthlyServiceItem is a recurring line. Included items render but cost
// nothing. Quantity never drops below MinQuantity.
type MonthlyServiceItem struct {
	Name             string          `json:"name"`
	Kind             MonthlyKind     `json:"kind"`
	UnitPriceMonthly decimal.Decimal `json:"unitPriceMonthly"`
	Quantity         int             `json:"quantity"`
	Included         bool            `json:"included"`
	Adjustable       bool            `json:"adjustable"`
	MinQuantity      int             `json:"minQuantity"`
	Note             string          `json:"note,omitempty"`
}

func (m MonthlyServiceItem) IsCalls() bool {
	return m.Kind == MonthlyKindCalls
}

func (m MonthlyServiceItem) LineTotal() decimal.Decimal {
	if m.Included {
		return decimal.Zero
	}
	return m.UnitPriceMonthly.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

// Minutes is the bundle allowance carried by a calls line.
func (m MonthlyServiceItem) Minutes(bundleMinutes int) int {
	if !m.IsCalls() {
		return 0
	}
	return m.Quantity * bundleMinutes
}

// CallsLabel is the display text of a calls line: the minute allowance, or
// the pay-as-you-go state at quantity zero.
func (m MonthlyServiceItem) CallsLabel(bundleMinutes int) string {
	if m.Quantity <= 0 {
		return PayAsYouGo
	}
	return fmt.Sprintf("%s minutes", groupThousands(m.Minutes(bundleMinutes)))
}

// MatchesName compares monthly line names case-insensitively.
func (m MonthlyServiceItem) MatchesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name))
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
