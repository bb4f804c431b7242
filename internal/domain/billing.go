package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BillingConfig holds the recurring fee schedule and VAT rate.
type BillingConfig struct {
	PlatformFeeMonthly     decimal.Decimal
	PerExtensionFeeMonthly decimal.Decimal
	VATRate                decimal.Decimal
	CallBundleMinutes      int
	CallBundleUnitPrice    decimal.Decimal
	VirtualNumberMonthly   decimal.Decimal
}

func DefaultBilling() BillingConfig {
	return BillingConfig{
		PlatformFeeMonthly:     decimal.NewFromInt(150),
		PerExtensionFeeMonthly: decimal.NewFromInt(65),
		VATRate:                decimal.RequireFromString("0.15"),
		CallBundleMinutes:      250,
		CallBundleUnitPrice:    decimal.NewFromInt(100),
		VirtualNumberMonthly:   decimal.NewFromInt(25),
	}
}

func (b BillingConfig) Validate() error {
	if b.PlatformFeeMonthly.IsNegative() || b.PerExtensionFeeMonthly.IsNegative() {
		return fmt.Errorf("%w: monthly fees must be non-negative", ErrInvalidInput)
	}
	if b.VATRate.IsNegative() || b.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: vat rate %s outside 0..1", ErrInvalidInput, b.VATRate)
	}
	if b.CallBundleMinutes <= 0 {
		return fmt.Errorf("%w: call bundle minutes must be positive", ErrInvalidInput)
	}
	if b.CallBundleUnitPrice.IsNegative() || b.VirtualNumberMonthly.IsNegative() {
		return fmt.Errorf("%w: bundle and number prices must be non-negative", ErrInvalidInput)
	}
	return nil
}

// Totals are always derived from a selection and its monthly lines.
type Totals struct {
	OnceOffSubtotal        decimal.Decimal `json:"onceOffSubtotal"`
	ExtensionCount         int             `json:"extensionCount"`
	MonthlyRecurringCharge decimal.Decimal `json:"monthlyRecurringCharge"`
	VATAmount              decimal.Decimal `json:"vatAmount"`
	GrandTotalFirstInvoice decimal.Decimal `json:"grandTotalFirstInvoice"`
}

// Equal compares amounts by value rather than by decimal representation.
func (t Totals) Equal(o Totals) bool {
	return t.ExtensionCount == o.ExtensionCount &&
		t.OnceOffSubtotal.Equal(o.OnceOffSubtotal) &&
		t.MonthlyRecurringCharge.Equal(o.MonthlyRecurringCharge) &&
		t.VATAmount.Equal(o.VATAmount) &&
		t.GrandTotalFirstInvoice.Equal(o.GrandTotalFirstInvoice)
}
