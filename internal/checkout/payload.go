package checkout

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"voipshop/internal/money"
	"voipshop/internal/quoteapi"
)

const (
	DefaultDebitDay = 28
	quoteNotes      = "Generated from VoIP Shop cart."
)

type Customer struct {
	Name    string `json:"name" validate:"required_without=Company,max=200"`
	Company string `json:"company" validate:"max=200"`
	Email   string `json:"email" validate:"required,looseemail,max=254"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
}

type DebitDetails struct {
	AccountName   string `json:"accountName" validate:"required"`
	Bank          string `json:"bank" validate:"required"`
	BranchCode    string `json:"branchCode" validate:"required,numeric"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric"`
	AccountType   string `json:"accountType"`
	DayOfMonth    int    `json:"dayOfMonth" validate:"omitempty,min=1,max=31"`
}

type PortDetails struct {
	Provider        string   `json:"provider" validate:"required"`
	AccountNumber   string   `json:"accountNumber" validate:"required"`
	Numbers         []string `json:"numbers" validate:"required,min=1,max=3,dive,zageo"`
	ServiceAddress  string   `json:"serviceAddress" validate:"required"`
	PbxLocation     string   `json:"pbxLocation"`
	ContactNumber   string   `json:"contactNumber"`
	IDNumber        string   `json:"idNumber"`
	AuthorisedName  string   `json:"authorisedName"`
	AuthorisedTitle string   `json:"authorisedTitle"`
}

// OrderDetails is everything the order form adds on top of the cart.
type OrderDetails struct {
	OrderNumber   string        `json:"orderNumber,omitempty"`
	InvoiceNumber string        `json:"invoiceNumber,omitempty"`
	Customer      Customer      `json:"customer"`
	Debit         *DebitDetails `json:"debit,omitempty"`
	Port          *PortDetails  `json:"port,omitempty"`
}

func (c Customer) wire() quoteapi.Customer {
	return quoteapi.Customer{
		Name:    strings.TrimSpace(c.Name),
		Company: strings.TrimSpace(c.Company),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

func lines(rows []Row) []quoteapi.Line {
	out := make([]quoteapi.Line, 0, len(rows))
	for _, r := range rows {
		unit := money.Float(r.Unit)
		if unit < 0 {
			unit = 0
		}
		out = append(out, quoteapi.Line{Name: r.Name, Qty: r.Qty, Unit: unit})
	}
	return out
}

func monthlyLines(rows []Row, bundleMinutes int) []quoteapi.MonthlyLine {
	out := make([]quoteapi.MonthlyLine, 0, len(rows))
	for _, r := range rows {
		l := quoteapi.MonthlyLine{Name: r.Name, Qty: r.Qty, Unit: money.Float(r.Unit), Note: r.Note}
		if r.IsCalls {
			l.IsCalls = true
			l.Minutes = r.Minutes
			l.QtyMinutes = r.Minutes
			l.BundleSize = bundleMinutes
			if r.Minutes > 0 {
				l.Note = fmt.Sprintf("Includes %d minutes", r.Minutes)
			} else {
				l.Note = ""
			}
		}
		out = append(out, l)
	}
	return out
}

// BuildOrderPayload assembles the complete-order body from the view, so
// the submitted lines are exactly the rendered ones.
func BuildOrderPayload(v View, d OrderDetails, bundleMinutes int) quoteapi.OrderPayload {
	customer := d.Customer.wire()

	debit := quoteapi.Debit{DayOfMonth: DefaultDebitDay}
	if d.Debit != nil {
		debit = quoteapi.Debit{
			AccountName:   strings.TrimSpace(d.Debit.AccountName),
			Bank:          strings.TrimSpace(d.Debit.Bank),
			BranchCode:    strings.TrimSpace(d.Debit.BranchCode),
			AccountNumber: strings.TrimSpace(d.Debit.AccountNumber),
			AccountType:   strings.TrimSpace(d.Debit.AccountType),
			DayOfMonth:    d.Debit.DayOfMonth,
		}
		if debit.DayOfMonth == 0 {
			debit.DayOfMonth = DefaultDebitDay
		}
	}

	port := quoteapi.Port{Numbers: []string{}, ContactNumber: customer.Phone}
	if d.Port != nil {
		port = quoteapi.Port{
			Provider:        strings.TrimSpace(d.Port.Provider),
			AccountNumber:   strings.TrimSpace(d.Port.AccountNumber),
			Numbers:         make([]string, 0, len(d.Port.Numbers)),
			ServiceAddress:  strings.TrimSpace(d.Port.ServiceAddress),
			PbxLocation:     strings.TrimSpace(d.Port.PbxLocation),
			ContactNumber:   strings.TrimSpace(d.Port.ContactNumber),
			IDNumber:        strings.TrimSpace(d.Port.IDNumber),
			AuthorisedName:  strings.TrimSpace(d.Port.AuthorisedName),
			AuthorisedTitle: strings.TrimSpace(d.Port.AuthorisedTitle),
		}
		for _, n := range d.Port.Numbers {
			if n = strings.TrimSpace(n); n != "" {
				port.Numbers = append(port.Numbers, n)
			}
		}
		if port.ContactNumber == "" {
			port.ContactNumber = customer.Phone
		}
	}

	didQty := 0
	if v.Porting != nil {
		didQty = 1
	}
	cloudPbx := 0
	if v.ExtensionCount > 0 {
		cloudPbx = 1
	}

	return quoteapi.OrderPayload{
		OrderNumber:   strings.TrimSpace(d.OrderNumber),
		InvoiceNumber: strings.TrimSpace(d.InvoiceNumber),
		Customer:      customer,
		OnceOff: quoteapi.OnceOffSection{
			Items:  lines(v.OnceOff),
			Totals: quoteapi.ExVAT{ExVat: money.Float(v.Totals.OnceOffSubtotal)},
		},
		Monthly: quoteapi.MonthlySection{
			Items:       monthlyLines(v.Monthly, bundleMinutes),
			CloudPbxQty: cloudPbx,
			Extensions:  v.ExtensionCount,
			DidQty:      didQty,
			Minutes:     v.Minutes,
			Totals:      quoteapi.ExVAT{ExVat: money.Float(v.Totals.MonthlyRecurringCharge)},
		},
		Debit: debit,
		Port:  port,
	}
}

// QuoteNumber formats VOIP-YYYY-MM-DD-NNNNNN with a six digit suffix.
func QuoteNumber(now time.Time, rnd *rand.Rand) string {
	suffix := 100000 + rnd.Intn(900000)
	return fmt.Sprintf("VOIP-%04d-%02d-%02d-%06d", now.Year(), int(now.Month()), now.Day(), suffix)
}

// BuildQuotePayload assembles the send-quote body. The client name falls
// back to the email when no business name was given.
func BuildQuotePayload(v View, c Customer, now time.Time, rnd *rand.Rand) quoteapi.QuotePayload {
	client := c.wire()
	if client.Name == "" {
		client.Name = client.Email
	}
	return quoteapi.QuotePayload{
		Delivery:     "attach",
		QuoteNumber:  QuoteNumber(now, rnd),
		DateISO:      now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Client:       client,
		ItemsOnceOff: lines(v.OnceOff),
		ItemsMonthly: lines(v.Monthly),
		Subtotals: quoteapi.Subtotals{
			OnceOff: money.Float(v.Totals.OnceOffSubtotal),
			Monthly: money.Float(v.Totals.MonthlyRecurringCharge),
		},
		Notes: quoteNotes,
	}
}
