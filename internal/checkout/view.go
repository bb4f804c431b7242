// Package checkout projects a cart into the rows, freebies and totals the
// checkout page shows, and turns that projection into the payloads the
// quote and order service accepts.
package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"voipshop/internal/catalog"
	"voipshop/internal/domain"
	"voipshop/internal/money"
	"voipshop/internal/pricing"
)

type Source string

const (
	SourceEmpty   Source = "empty"
	SourceCustom  Source = "custom"
	SourcePackage Source = "package"
)

const (
	NetworkSwitch = "Network Switch"
	Installation  = "Installation"
)

var (
	localRatePerMin  = decimal.RequireFromString("0.35")
	mobileRatePerMin = decimal.RequireFromString("0.55")

	wirelessKeywords = regexp.MustCompile(`(?i)wireless|wi-?fi|wifi|mesh|access\s*point|(?:\b|_)ap\b|router|deco|tp[-\s]?link|ubiquiti|unifi`)
	voiceOnlyTag     = regexp.MustCompile(`(?i)voice\s*only`)
	baseStationLike  = regexp.MustCompile(`(?i)w70b|base\s*station|dect\s*base`)
)

// Row is one rendered cart line.
type Row struct {
	Name       string          `json:"name"`
	SKU        string          `json:"sku,omitempty"`
	Image      string          `json:"image,omitempty"`
	Qty        int             `json:"qty"`
	Unit       decimal.Decimal `json:"unit"`
	Total      decimal.Decimal `json:"total"`
	Included   bool            `json:"included"`
	Adjustable bool            `json:"adjustable"`
	MinQty     int             `json:"minQty"`
	IsCalls    bool            `json:"isCalls,omitempty"`
	Minutes    int             `json:"minutes,omitempty"`
	Note       string          `json:"note,omitempty"`
	Subtext    []string        `json:"subtext,omitempty"`
	PriceText  string          `json:"priceText"`
	TotalText  string          `json:"totalText"`
}

type Summary struct {
	OnceOff string `json:"onceOff"`
	Monthly string `json:"monthly"`
	VAT     string `json:"vat"`
	Total   string `json:"total"`
}

type View struct {
	Source         Source                `json:"source"`
	PackageName    string                `json:"packageName,omitempty"`
	Wireless       bool                  `json:"wireless"`
	VoiceOnly      bool                  `json:"voiceOnly"`
	ExtensionCount int                   `json:"extensionCount"`
	CallBundles    int                   `json:"callBundles"`
	Minutes        int                   `json:"minutes"`
	OnceOff        []Row                 `json:"onceOff"`
	Monthly        []Row                 `json:"monthly"`
	Totals         domain.Totals         `json:"totals"`
	Summary        Summary               `json:"summary"`
	Porting        *domain.PortingChoice `json:"porting,omitempty"`
}

func (v View) IsEmpty() bool { return v.Source == SourceEmpty }

type Inputs struct {
	Catalog   *catalog.Catalog
	Billing   domain.BillingConfig
	Selection domain.Selection
	Package   *domain.PackageChoice
	Porting   *domain.PortingChoice
	// CallBundles is the calls line quantity. Negative means "not chosen
	// yet", in which case a package's included minutes decide it.
	CallBundles int
	Logger      *zap.Logger
}

// MonthlyExtras are the monthly lines beyond platform and extension fees:
// the calls bundle and, depending on the number choice, a virtual number or
// included number hosting.
func MonthlyExtras(billing domain.BillingConfig, callBundles int, porting *domain.PortingChoice) []domain.MonthlyServiceItem {
	items := pricing.DefaultMonthlyItems(billing, callBundles)
	if porting == nil {
		return items
	}
	switch porting.Mode {
	case domain.PortingNew:
		name := domain.MonthlyVirtualNumber
		if r := strings.TrimSpace(porting.Region); r != "" {
			name += " - " + r
		}
		items = append(items, domain.MonthlyServiceItem{
			Name:             name,
			Kind:             domain.MonthlyKindService,
			UnitPriceMonthly: billing.VirtualNumberMonthly,
			Quantity:         1,
			MinQuantity:      1,
		})
	case domain.PortingPort:
		name := domain.MonthlyNumberHosting
		if len(porting.Numbers) > 0 && porting.Numbers[0] != "" {
			name += " - " + porting.Numbers[0]
		}
		items = append(items, domain.MonthlyServiceItem{
			Name:        name,
			Kind:        domain.MonthlyKindService,
			Quantity:    1,
			MinQuantity: 1,
			Included:    true,
		})
	}
	return items
}

// ResolveCallBundles picks the calls quantity: an explicit choice wins,
// otherwise the package's included minutes, otherwise pay-as-you-go.
func ResolveCallBundles(explicit int, pkg *domain.PackageChoice, bundleMinutes int) int {
	if explicit >= 0 {
		return explicit
	}
	if pkg != nil {
		return pricing.BundlesForMinutes(pkg.MinutesIncluded, bundleMinutes)
	}
	return 0
}

// PackageSelection prices a package's devices through the catalog. Devices
// the catalog does not know are logged and kept at zero, rendered as
// included.
func PackageSelection(cat *catalog.Catalog, pkg domain.PackageChoice, logger *zap.Logger) domain.Selection {
	if logger == nil {
		logger = zap.NewNop()
	}
	sel := domain.EmptySelection()
	for _, d := range pkg.Devices {
		name := strings.TrimSpace(d.Device)
		if name == "" || d.Number <= 0 {
			continue
		}
		id := "pkg:" + strings.ToLower(name)
		if existing, ok := sel.Find(id); ok {
			existing.Quantity += d.Number
			sel = sel.With(existing)
			continue
		}

		line := domain.LineItem{
			ID:       id,
			Name:     name,
			Category: domain.CategoryOther,
			Quantity: d.Number,
		}
		if e, ok := cat.Resolve(name); ok {
			line.SKU = e.SKU
			line.Category = e.Category
			line.UnitPriceOnceOff = e.UnitPriceOnceOff
			line.IsBaseStation = e.IsBaseStation
			line.RequiresBaseStation = e.RequiresBaseStation
			line.SupportsHandsets = e.SupportsHandsets
		} else {
			logger.Warn("price lookup missed, treating as included",
				zap.String("device", name), zap.String("package", pkg.Name))
		}
		line.IsBaseStation = line.IsBaseStation || baseStationLike.MatchString(name)
		line.Image, _ = cat.ResolveImage(name)
		sel = sel.With(line)
	}
	return sel
}

// PackageExtensions is the stated extension count, else the number of
// non base-station devices, never less than one.
func PackageExtensions(pkg domain.PackageChoice) int {
	if pkg.Extensions > 0 {
		return pkg.Extensions
	}
	n := 0
	for _, d := range pkg.Devices {
		name := strings.TrimSpace(d.Device)
		if name == "" || d.Number <= 0 || baseStationLike.MatchString(name) {
			continue
		}
		n += d.Number
	}
	if n == 0 {
		return 1
	}
	return n
}

func isWireless(pkg *domain.PackageChoice) bool {
	if pkg == nil {
		return false
	}
	if pkg.IsWireless {
		return true
	}
	for _, t := range pkg.Tags {
		if strings.Contains(strings.ToLower(t), "wireless") {
			return true
		}
	}
	for _, d := range pkg.Devices {
		if wirelessKeywords.MatchString(d.Device) {
			return true
		}
	}
	return false
}

func isVoiceOnly(pkg *domain.PackageChoice) bool {
	if pkg == nil {
		return false
	}
	if pkg.IsVoiceOnly {
		return true
	}
	for _, t := range pkg.Tags {
		if voiceOnlyTag.MatchString(t) {
			return true
		}
	}
	return false
}

// SwitchPorts sizes the included network switch: one port per extension,
// rounded up to an even count.
func SwitchPorts(extensions int) int {
	if extensions <= 0 {
		return 0
	}
	return (extensions + 1) / 2 * 2
}

// BuildView projects the cart. A custom build wins over a package; with
// neither the view is empty and every total is zero.
func BuildView(in Inputs) View {
	billing := in.Billing
	if billing.CallBundleMinutes <= 0 {
		billing = domain.DefaultBilling()
	}

	v := View{
		Source:  SourceEmpty,
		OnceOff: []Row{},
		Monthly: []Row{},
		Porting: in.Porting,
	}

	var sel domain.Selection
	switch {
	case !in.Selection.IsEmpty():
		v.Source = SourceCustom
		sel = in.Selection
		v.ExtensionCount = sel.ExtensionCount()
	case in.Package != nil && in.Catalog != nil:
		v.Source = SourcePackage
		v.PackageName = in.Package.Name
		v.Wireless = isWireless(in.Package)
		v.VoiceOnly = isVoiceOnly(in.Package)
		sel = PackageSelection(in.Catalog, *in.Package, in.Logger)
		v.ExtensionCount = PackageExtensions(*in.Package)
	default:
		v.Summary = summarize(v.Totals)
		return v
	}

	v.CallBundles = ResolveCallBundles(in.CallBundles, in.Package, billing.CallBundleMinutes)
	v.Minutes = v.CallBundles * billing.CallBundleMinutes
	extras := MonthlyExtras(billing, v.CallBundles, in.Porting)

	onceOff := decimal.Zero
	for _, it := range sel.Items {
		onceOff = onceOff.Add(it.LineTotal())
		v.OnceOff = append(v.OnceOff, onceOffRow(it))
	}
	if !v.Wireless && !v.VoiceOnly && v.ExtensionCount >= 2 {
		v.OnceOff = append(v.OnceOff, freebie(NetworkSwitch, "Assets/server-network.png",
			fmt.Sprintf("%d-port", SwitchPorts(v.ExtensionCount))))
	}
	if !v.Wireless {
		v.OnceOff = append(v.OnceOff, freebie(Installation, "Assets/construct2.png", ""))
	}

	v.Totals = pricing.TotalsFor(onceOff, v.ExtensionCount, extras, billing)
	if v.ExtensionCount > 0 {
		v.Monthly = append(v.Monthly,
			monthlyRow(domain.MonthlyServiceItem{
				Name: domain.MonthlyPlatform, Kind: domain.MonthlyKindService,
				UnitPriceMonthly: billing.PlatformFeeMonthly, Quantity: 1, MinQuantity: 1,
			}, billing),
			monthlyRow(domain.MonthlyServiceItem{
				Name: domain.MonthlyExtensionFee, Kind: domain.MonthlyKindService,
				UnitPriceMonthly: billing.PerExtensionFeeMonthly, Quantity: v.ExtensionCount, MinQuantity: 1,
			}, billing),
		)
		for _, m := range extras {
			v.Monthly = append(v.Monthly, monthlyRow(m, billing))
		}
	}
	v.Summary = summarize(v.Totals)
	return v
}

func onceOffRow(it domain.LineItem) Row {
	r := Row{
		Name:     it.Name,
		SKU:      it.SKU,
		Image:    it.Image,
		Qty:      it.Quantity,
		Unit:     it.UnitPriceOnceOff,
		Total:    it.LineTotal(),
		Included: it.UnitPriceOnceOff.IsZero(),
	}
	r.Adjustable = !r.Included && !it.IsBaseStation
	if r.Included {
		r.PriceText, r.TotalText = "Included", "Included"
	} else {
		r.PriceText, r.TotalText = money.Format(r.Unit), money.Format(r.Total)
	}
	return r
}

func freebie(name, image, note string) Row {
	return Row{
		Name:      name,
		Image:     image,
		Qty:       1,
		Unit:      decimal.Zero,
		Total:     decimal.Zero,
		Included:  true,
		Note:      note,
		PriceText: "Included",
		TotalText: "Included",
	}
}

func monthlyRow(m domain.MonthlyServiceItem, billing domain.BillingConfig) Row {
	r := Row{
		Name:       m.Name,
		Qty:        m.Quantity,
		Unit:       m.UnitPriceMonthly,
		Total:      m.LineTotal(),
		Included:   m.Included,
		Adjustable: m.Adjustable && !m.Included,
		MinQty:     m.MinQuantity,
		Note:       m.Note,
	}
	if m.IsCalls() {
		r.IsCalls = true
		r.Minutes = m.Minutes(billing.CallBundleMinutes)
		r.Note = m.CallsLabel(billing.CallBundleMinutes)
		rates := fmt.Sprintf("Local R %s/min · Mobile R %s/min", localRatePerMin.StringFixed(2), mobileRatePerMin.StringFixed(2))
		if m.Quantity > 0 {
			rates = "Overages: " + rates
		}
		r.Subtext = []string{r.Note, rates}
	}
	if r.Included {
		r.Unit, r.Total = decimal.Zero, decimal.Zero
		r.PriceText, r.TotalText = "Included", "Included"
	} else {
		r.PriceText, r.TotalText = money.FormatMonthly(r.Unit), money.FormatMonthly(r.Total)
	}
	return r
}

func summarize(t domain.Totals) Summary {
	return Summary{
		OnceOff: money.FormatCents(t.OnceOffSubtotal),
		Monthly: money.FormatCents(t.MonthlyRecurringCharge),
		VAT:     money.FormatCents(t.VATAmount),
		Total:   money.FormatCents(t.GrandTotalFirstInvoice),
	}
}
