package quoteapi

// Line is the {name, qty, unit} shape both endpoints accept. Unit is the
// ex-VAT price per unit.
type Line struct {
	Name string  `json:"name"`
	Qty  int     `json:"qty"`
	Unit float64 `json:"unit"`
}

// MonthlyLine carries the extra minute fields on the calls row.
type MonthlyLine struct {
	Name       string  `json:"name"`
	Qty        int     `json:"qty"`
	Unit       float64 `json:"unit"`
	Note       string  `json:"note"`
	Minutes    int     `json:"minutes,omitempty"`
	QtyMinutes int     `json:"qtyMinutes,omitempty"`
	IsCalls    bool    `json:"isCalls,omitempty"`
	BundleSize int     `json:"bundleSize,omitempty"`
}

type Customer struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ExVAT struct {
	ExVat float64 `json:"exVat"`
}

type OnceOffSection struct {
	Items  []Line `json:"items"`
	Totals ExVAT  `json:"totals"`
}

type MonthlySection struct {
	Items       []MonthlyLine `json:"items"`
	CloudPbxQty int           `json:"cloudPbxQty"`
	Extensions  int           `json:"extensions"`
	DidQty      int           `json:"didQty"`
	Minutes     int           `json:"minutes"`
	Totals      ExVAT         `json:"totals"`
}

type Debit struct {
	AccountName   string `json:"accountName"`
	Bank          string `json:"bank"`
	BranchCode    string `json:"branchCode"`
	AccountNumber string `json:"accountNumber"`
	AccountType   string `json:"accountType"`
	DayOfMonth    int    `json:"dayOfMonth"`
}

type Port struct {
	Provider        string   `json:"provider"`
	AccountNumber   string   `json:"accountNumber"`
	Numbers         []string `json:"numbers"`
	ServiceAddress  string   `json:"serviceAddress"`
	PbxLocation     string   `json:"pbxLocation"`
	ContactNumber   string   `json:"contactNumber"`
	IDNumber        string   `json:"idNumber"`
	AuthorisedName  string   `json:"authorisedName"`
	AuthorisedTitle string   `json:"authorisedTitle"`
}

// OrderPayload is the body of POST /api/complete-order.
type OrderPayload struct {
	OrderNumber   string         `json:"orderNumber,omitempty"`
	InvoiceNumber string         `json:"invoiceNumber,omitempty"`
	Customer      Customer       `json:"customer"`
	OnceOff       OnceOffSection `json:"onceOff"`
	Monthly       MonthlySection `json:"monthly"`
	Debit         Debit          `json:"debit"`
	Port          Port           `json:"port"`
}

type Subtotals struct {
	OnceOff float64 `json:"onceOff"`
	Monthly float64 `json:"monthly"`
}

// QuotePayload is the body of POST /api/send-quote.
type QuotePayload struct {
	Delivery     string    `json:"delivery"`
	QuoteNumber  string    `json:"quoteNumber"`
	DateISO      string    `json:"dateISO"`
	Client       Customer  `json:"client"`
	ItemsOnceOff []Line    `json:"itemsOnceOff"`
	ItemsMonthly []Line    `json:"itemsMonthly"`
	Subtotals    Subtotals `json:"subtotals"`
	Notes        string    `json:"notes"`
}
