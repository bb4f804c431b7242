// Package pricing owns the cart selection and everything derived from it:
// base-station scaling, extension count, once-off and monthly totals, VAT,
// and the persisted snapshot form.
//
// An Engine is not safe for concurrent use. Each browser session drives its
// own engine from discrete user actions.
package pricing

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"voipshop/internal/catalog"
	"voipshop/internal/domain"
	"voipshop/internal/money"
)

type Options struct {
	Billing domain.BillingConfig
	// MaxQuantity caps hardware quantities. Zero means unrestricted.
	MaxQuantity int
	Logger      *zap.Logger
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Selection domain.Selection
	Monthly   []domain.MonthlyServiceItem
	Totals    domain.Totals
}

type subscriber struct {
	id int
	fn func(Change)
}

type Engine struct {
	catalog *catalog.Catalog
	billing domain.BillingConfig
	maxQty  int
	logger  *zap.Logger

	selection domain.Selection
	monthly   []domain.MonthlyServiceItem

	subs   []subscriber
	nextID int
}

func New(cat *catalog.Catalog, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	billing := opts.Billing
	if billing.CallBundleMinutes <= 0 {
		billing = domain.DefaultBilling()
	}
	maxQty := opts.MaxQuantity
	if maxQty < 0 {
		maxQty = 0
	}
	return &Engine{
		catalog:   cat,
		billing:   billing,
		maxQty:    maxQty,
		logger:    logger,
		selection: domain.EmptySelection(),
	}
}

func (e *Engine) Billing() domain.BillingConfig { return e.billing }

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

func (e *Engine) Selection() domain.Selection { return e.selection.Clone() }

func (e *Engine) MonthlyItems() []domain.MonthlyServiceItem {
	return append([]domain.MonthlyServiceItem(nil), e.monthly...)
}

// Totals recomputes from the current state.
func (e *Engine) Totals() domain.Totals {
	return ComputeTotals(e.selection, e.monthly, e.billing)
}

// SetQuantity clamps newQuantity to [0, MaxQuantity], inserts, updates or
// removes the line, re-derives base stations and notifies subscribers.
// Unknown ids are a logged no-op.
func (e *Engine) SetQuantity(itemID string, newQuantity int) domain.Selection {
	entry, ok := e.catalog.LookupID(itemID)
	if !ok {
		e.logger.Warn("set quantity for unknown item ignored", zap.String("item_id", itemID))
		return e.Selection()
	}

	qty := e.clamp(newQuantity)
	if qty != newQuantity {
		e.logger.Debug("quantity clamped",
			zap.String("item_id", entry.ID),
			zap.Int("requested", newQuantity),
			zap.Int("applied", qty),
		)
	}

	line, found := e.selection.Find(entry.ID)
	if !found {
		line = entry.LineItem(0)
	}
	line.Quantity = qty
	e.selection = e.DeriveBaseStations(e.selection.With(line))
	e.notify()
	return e.Selection()
}

// IncrementQuantity applies a +/- button press.
func (e *Engine) IncrementQuantity(itemID string, delta int) domain.Selection {
	entry, ok := e.catalog.LookupID(itemID)
	if !ok {
		e.logger.Warn("adjust quantity for unknown item ignored", zap.String("item_id", itemID))
		return e.Selection()
	}
	return e.SetQuantity(entry.ID, e.selection.Quantity(entry.ID)+delta)
}

func (e *Engine) clamp(q int) int {
	if q < 0 {
		return 0
	}
	if e.maxQty > 0 && q > e.maxQty {
		return e.maxQty
	}
	return q
}

// DeriveBaseStations applies the catalog's base-station rule to sel.
func (e *Engine) DeriveBaseStations(sel domain.Selection) domain.Selection {
	bs, ok := e.catalog.BaseStation()
	if !ok {
		return sel.Clone()
	}
	return DeriveBaseStations(sel, bs)
}

// DeriveBaseStations sets the base-station line to ceil(cordless/capacity),
// overwriting whatever quantity it had. Zero cordless handsets removes it.
func DeriveBaseStations(sel domain.Selection, baseStation catalog.Entry) domain.Selection {
	capacity := baseStation.SupportsHandsets
	if capacity <= 0 {
		capacity = 8
	}
	cordless := sel.CordlessTotal()
	required := 0
	if cordless > 0 {
		required = (cordless + capacity - 1) / capacity
	}

	line, found := sel.Find(baseStation.ID)
	if !found {
		line = baseStation.LineItem(0)
	}
	line.Quantity = required
	line.IsBaseStation = true
	return sel.With(line)
}

// ComputeTotals is a pure function of its inputs. The monthly charge,
// including any extra monthly lines, is only levied once at least one
// extension is selected.
func ComputeTotals(sel domain.Selection, monthly []domain.MonthlyServiceItem, billing domain.BillingConfig) domain.Totals {
	onceOff := decimal.Zero
	for _, it := range sel.Items {
		onceOff = onceOff.Add(it.LineTotal())
	}
	return TotalsFor(onceOff, sel.ExtensionCount(), monthly, billing)
}

// TotalsFor applies the billing rules to an already summed once-off amount
// and an extension count. Package carts use it because their extension count
// may be stated rather than counted.
func TotalsFor(onceOff decimal.Decimal, ext int, monthly []domain.MonthlyServiceItem, billing domain.BillingConfig) domain.Totals {
	if ext < 0 {
		ext = 0
	}
	recurring := decimal.Zero
	if ext > 0 {
		recurring = billing.PlatformFeeMonthly.
			Add(billing.PerExtensionFeeMonthly.Mul(decimal.NewFromInt(int64(ext))))
		for _, m := range monthly {
			recurring = recurring.Add(m.LineTotal())
		}
	}

	vat := VAT(onceOff, recurring, billing.VATRate)
	return domain.Totals{
		OnceOffSubtotal:        onceOff,
		ExtensionCount:         ext,
		MonthlyRecurringCharge: recurring,
		VATAmount:              vat,
		GrandTotalFirstInvoice: onceOff.Add(recurring).Add(vat),
	}
}

// VAT is round((onceOff + monthly) * rate, 2).
func VAT(onceOff, monthly, rate decimal.Decimal) decimal.Decimal {
	return money.Round2(onceOff.Add(monthly).Mul(rate))
}

// SetMonthlyItems replaces the extra monthly lines (calls bundle, numbers).
// Quantities below an item's minimum are raised to it.
func (e *Engine) SetMonthlyItems(items []domain.MonthlyServiceItem) {
	e.monthly = make([]domain.MonthlyServiceItem, 0, len(items))
	for _, m := range items {
		if m.Quantity < m.MinQuantity {
			m.Quantity = m.MinQuantity
		}
		e.monthly = append(e.monthly, m)
	}
	e.notify()
}

// AdjustMonthlyItem applies delta to the named line, clamped at its
// minimum. Non-adjustable or included lines are returned unchanged. The
// boolean is false when no line has that name.
func (e *Engine) AdjustMonthlyItem(name string, delta int) (domain.MonthlyServiceItem, bool) {
	for i, m := range e.monthly {
		if !m.MatchesName(name) {
			continue
		}
		if !m.Adjustable || m.Included {
			e.logger.Debug("monthly item not adjustable", zap.String("name", m.Name))
			return m, true
		}
		q := m.Quantity + delta
		if q < m.MinQuantity {
			q = m.MinQuantity
		}
		m.Quantity = q
		if m.IsCalls() {
			m.Note = m.CallsLabel(e.billing.CallBundleMinutes)
		}
		e.monthly[i] = m
		e.notify()
		return m, true
	}
	e.logger.Warn("adjust unknown monthly item ignored", zap.String("name", name))
	return domain.MonthlyServiceItem{}, false
}

// CallsItem builds the adjustable call-bundle line.
func CallsItem(billing domain.BillingConfig, bundles int) domain.MonthlyServiceItem {
	if bundles < 0 {
		bundles = 0
	}
	item := domain.MonthlyServiceItem{
		Name:             domain.MonthlyCalls,
		Kind:             domain.MonthlyKindCalls,
		UnitPriceMonthly: billing.CallBundleUnitPrice,
		Quantity:         bundles,
		Adjustable:       true,
		MinQuantity:      0,
	}
	item.Note = item.CallsLabel(billing.CallBundleMinutes)
	return item
}

// DefaultMonthlyItems is the extra monthly set for a fresh cart: just the
// calls line at the given bundle count.
func DefaultMonthlyItems(billing domain.BillingConfig, callBundles int) []domain.MonthlyServiceItem {
	return []domain.MonthlyServiceItem{CallsItem(billing, callBundles)}
}

// BundlesForMinutes converts an included-minutes figure to whole bundles.
func BundlesForMinutes(minutes, bundleMinutes int) int {
	if minutes <= 0 || bundleMinutes <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(minutes)).
		Div(decimal.NewFromInt(int64(bundleMinutes))).
		Round(0).IntPart())
}

// LoadSelection replaces the selection wholesale, e.g. after Restore.
// Zero-quantity and duplicate lines are dropped and base stations are
// re-derived, so a stored cart follows the current handset capacity.
func (e *Engine) LoadSelection(sel domain.Selection) {
	clean := domain.EmptySelection()
	for _, it := range sel.Items {
		if it.Quantity <= 0 {
			continue
		}
		if _, dup := clean.Find(it.ID); dup {
			e.logger.Warn("duplicate line dropped on load", zap.String("item_id", it.ID))
			continue
		}
		clean = clean.With(it)
	}
	e.selection = e.DeriveBaseStations(clean)
	e.notify()
}

// Clear empties the selection and the monthly extras.
func (e *Engine) Clear() {
	e.selection = domain.EmptySelection()
	e.monthly = nil
	e.notify()
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (e *Engine) Subscribe(fn func(Change)) func() {
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) notify() {
	if len(e.subs) == 0 {
		return
	}
	ch := Change{
		Selection: e.Selection(),
		Monthly:   e.MonthlyItems(),
		Totals:    e.Totals(),
	}
	for _, s := range append([]subscriber(nil), e.subs...) {
		s.fn(ch)
	}
}
