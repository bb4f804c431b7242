package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipshop/internal/catalog"
	"voipshop/internal/domain"
)

const (
	handset     = "yealink-w73h"
	rugged      = "yealink-w59r"
	baseStation = "yealink-w70b"
	switchboard = "yealink-t73u"
	deskPhone   = "yealink-t33g"
)

func newEngine(t *testing.T, maxQty int) *Engine {
	t.Helper()
	return New(catalog.Default(), Options{Billing: domain.DefaultBilling(), MaxQuantity: maxQty})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "%s: got %s want %s", field, got, want)
}

func assertSameSelection(t *testing.T, want, got domain.Selection) {
	t.Helper()
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		w, g := want.Items[i], got.Items[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Name, g.Name)
		assert.Equal(t, w.Category, g.Category)
		assert.Equal(t, w.Quantity, g.Quantity, w.ID)
		assert.Equal(t, w.IsBaseStation, g.IsBaseStation, w.ID)
		assert.Truef(t, w.UnitPriceOnceOff.Equal(g.UnitPriceOnceOff), "%s price: %s vs %s", w.ID, w.UnitPriceOnceOff, g.UnitPriceOnceOff)
	}
}

func TestThreeCordlessHandsetsNeedOneBaseStation(t *testing.T) {
	e := newEngine(t, 0)

	sel := e.SetQuantity(handset, 3)

	require.Len(t, sel.Items, 2)
	assert.Equal(t, handset, sel.Items[0].ID)
	assert.Equal(t, 3, sel.Items[0].Quantity)
	assert.Equal(t, baseStation, sel.Items[1].ID)
	assert.Equal(t, 1, sel.Items[1].Quantity)
	assert.True(t, sel.Items[1].IsBaseStation)

	totals := e.Totals()
	assert.Equal(t, 3, totals.ExtensionCount)
	assertAmount(t, "4700", totals.OnceOffSubtotal, "onceOff")
	assertAmount(t, "345", totals.MonthlyRecurringCharge, "monthly")
}

func TestNineCordlessHandsetsNeedTwoBaseStations(t *testing.T) {
	e := newEngine(t, 0)

	e.SetQuantity(handset, 5)
	sel := e.SetQuantity(rugged, 4)

	assert.Equal(t, 2, sel.Quantity(baseStation))
	assert.Equal(t, 9, sel.ExtensionCount())

	sel = e.SetQuantity(rugged, 3)
	assert.Equal(t, 1, sel.Quantity(baseStation))

	sel = e.SetQuantity(handset, 0)
	sel = e.SetQuantity(rugged, 0)
	_, present := sel.Find(baseStation)
	assert.False(t, present)
	assert.True(t, sel.IsEmpty())
}

func TestBaseStationQuantityIsAlwaysDerived(t *testing.T) {
	e := newEngine(t, 0)

	sel := e.SetQuantity(baseStation, 4)
	assert.True(t, sel.IsEmpty())

	e.SetQuantity(handset, 2)
	sel = e.SetQuantity(baseStation, 5)
	assert.Equal(t, 1, sel.Quantity(baseStation))
}

func TestBaseStationsMonotonicInCordlessCount(t *testing.T) {
	e := newEngine(t, 0)

	prev := 0
	for n := 0; n <= 30; n++ {
		sel := e.SetQuantity(handset, n)
		got := sel.Quantity(baseStation)
		assert.GreaterOrEqual(t, got, prev, "n=%d", n)
		assert.Equal(t, (n+7)/8, got, "n=%d", n)
		prev = got
	}
}

func TestEmptySelectionHasNoMonthlyCharge(t *testing.T) {
	e := newEngine(t, 0)
	e.SetMonthlyItems([]domain.MonthlyServiceItem{CallsItem(e.Billing(), 2)})

	totals := e.Totals()

	assert.Equal(t, 0, totals.ExtensionCount)
	assert.True(t, totals.OnceOffSubtotal.IsZero())
	assert.True(t, totals.MonthlyRecurringCharge.IsZero())
	assert.True(t, totals.VATAmount.IsZero())
	assert.True(t, totals.GrandTotalFirstInvoice.IsZero())
}

func TestComputeTotalsVATRounding(t *testing.T) {
	cat := catalog.Default()
	entry, ok := cat.LookupID(switchboard)
	require.True(t, ok)
	sel := domain.EmptySelection().With(entry.LineItem(1))

	billing := domain.DefaultBilling()
	billing.PerExtensionFeeMonthly = decimal.Zero

	totals := ComputeTotals(sel, nil, billing)

	assertAmount(t, "1995", totals.OnceOffSubtotal, "onceOff")
	assertAmount(t, "150", totals.MonthlyRecurringCharge, "monthly")
	assertAmount(t, "321.75", totals.VATAmount, "vat")
	assertAmount(t, "2466.75", totals.GrandTotalFirstInvoice, "grand")
}

func TestComputeTotalsIncludesMonthlyExtras(t *testing.T) {
	e := newEngine(t, 0)
	e.SetQuantity(deskPhone, 2)
	e.SetMonthlyItems([]domain.MonthlyServiceItem{
		CallsItem(e.Billing(), 2),
		{Name: domain.MonthlyVirtualNumber, UnitPriceMonthly: dec("25"), Quantity: 1},
		{Name: domain.MonthlyNumberHosting, UnitPriceMonthly: dec("40"), Quantity: 1, Included: true},
	})

	totals := e.Totals()

	// 150 + 2*65 + 2*100 + 25
	assertAmount(t, "505", totals.MonthlyRecurringCharge, "monthly")
	assertAmount(t, "2900", totals.OnceOffSubtotal, "onceOff")
	assertAmount(t, "510.75", totals.VATAmount, "vat")
}

func TestComputeTotalsIsPure(t *testing.T) {
	e := newEngine(t, 0)
	e.SetQuantity(handset, 4)
	sel := e.Selection()

	a := ComputeTotals(sel, nil, e.Billing())
	b := ComputeTotals(sel, nil, e.Billing())
	assert.True(t, a.Equal(b))
}

func TestSetQuantityClampsAndIsIdempotent(t *testing.T) {
	e := newEngine(t, 9)

	sel := e.SetQuantity(deskPhone, 20)
	assert.Equal(t, 9, sel.Quantity(deskPhone))

	again := e.SetQuantity(deskPhone, 20)
	assertSameSelection(t, sel, again)

	sel = e.SetQuantity(deskPhone, -3)
	_, present := sel.Find(deskPhone)
	assert.False(t, present)
}

func TestIncrementQuantity(t *testing.T) {
	e := newEngine(t, 0)

	e.IncrementQuantity(switchboard, 1)
	e.IncrementQuantity(switchboard, 1)
	sel := e.IncrementQuantity(switchboard, -1)
	assert.Equal(t, 1, sel.Quantity(switchboard))

	sel = e.IncrementQuantity(switchboard, -5)
	assert.True(t, sel.IsEmpty())
}

func TestSetQuantityUnknownIDIsNoop(t *testing.T) {
	e := newEngine(t, 0)
	e.SetQuantity(deskPhone, 1)

	calls := 0
	e.Subscribe(func(Change) { calls++ })
	sel := e.SetQuantity("grandstream-gxp", 3)

	assert.Equal(t, 1, sel.Len())
	assert.Zero(t, calls)
}

func TestLegacyCardIDMapsToCanonicalLine(t *testing.T) {
	e := newEngine(t, 0)

	sel := e.SetQuantity("Cordless-Placeholder-1", 2)

	assert.Equal(t, 2, sel.Quantity(rugged))
	assert.Equal(t, 1, sel.Quantity(baseStation))
}

func TestSelectionKeepsInsertionOrder(t *testing.T) {
	e := newEngine(t, 0)

	e.SetQuantity(deskPhone, 1)
	e.SetQuantity(switchboard, 1)
	sel := e.SetQuantity(deskPhone, 3)

	require.Len(t, sel.Items, 2)
	assert.Equal(t, deskPhone, sel.Items[0].ID)
	assert.Equal(t, switchboard, sel.Items[1].ID)
}

func TestAdjustMonthlyCallsBundle(t *testing.T) {
	e := newEngine(t, 0)
	e.SetMonthlyItems([]domain.MonthlyServiceItem{CallsItem(e.Billing(), 1)})

	item, ok := e.AdjustMonthlyItem("calls", 1)
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "500 minutes", item.Note)
	assert.Equal(t, 500, item.Minutes(e.Billing().CallBundleMinutes))

	item, _ = e.AdjustMonthlyItem(domain.MonthlyCalls, -1)
	item, _ = e.AdjustMonthlyItem(domain.MonthlyCalls, -1)
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, domain.PayAsYouGo, item.Note)

	item, _ = e.AdjustMonthlyItem(domain.MonthlyCalls, -1)
	assert.Equal(t, 0, item.Quantity)
}

func TestAdjustMonthlyLeavesFixedLinesAlone(t *testing.T) {
	e := newEngine(t, 0)
	e.SetMonthlyItems([]domain.MonthlyServiceItem{
		{Name: domain.MonthlyVirtualNumber, UnitPriceMonthly: dec("25"), Quantity: 1},
	})

	item, ok := e.AdjustMonthlyItem(domain.MonthlyVirtualNumber, 3)
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)

	_, ok = e.AdjustMonthlyItem("Fax to email", 1)
	assert.False(t, ok)
}

func TestBundlesForMinutes(t *testing.T) {
	assert.Equal(t, 0, BundlesForMinutes(0, 250))
	assert.Equal(t, 2, BundlesForMinutes(500, 250))
	assert.Equal(t, 4, BundlesForMinutes(1000, 250))
	assert.Equal(t, 1, BundlesForMinutes(200, 250))
	assert.Equal(t, 0, BundlesForMinutes(100, 0))
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := newEngine(t, 0)
	e.SetQuantity(switchboard, 1)
	e.SetQuantity(handset, 3)
	e.SetQuantity(deskPhone, 2)
	sel := e.Selection()

	snap := e.Snapshot()
	assert.Equal(t, 6, snap.Meta.ExtensionCount)
	require.Len(t, snap.Items, 4)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	restored := e.Restore(raw)
	assertSameSelection(t, sel, restored)
	assert.True(t, ComputeTotals(sel, nil, e.Billing()).Equal(ComputeTotals(restored, nil, e.Billing())))
}

func TestRestoreAcceptsBareItemArray(t *testing.T) {
	e := newEngine(t, 0)

	raw := `[{"id":"yealink-w73h","name":"Yealink W73H","quantity":2,"unitPriceOnceOff":1300,"isBaseStation":false},
		{"id":"yealink-w70b","name":"Base Station","quantity":1,"unitPriceOnceOff":930,"isBaseStation":true}]`
	sel := e.Restore([]byte(raw))

	require.Len(t, sel.Items, 2)
	assert.Equal(t, domain.CategoryCordless, sel.Items[0].Category)
	assertAmount(t, "1300", sel.Items[0].UnitPriceOnceOff, "saved price wins")
	assert.Equal(t, 2, sel.ExtensionCount())
}

func TestRestoreMalformedYieldsEmpty(t *testing.T) {
	e := newEngine(t, 0)

	for _, raw := range []string{``, `null`, `{"items": "oops"`, `{"items": 7}`, `"string"`} {
		sel := e.Restore([]byte(raw))
		assert.True(t, sel.IsEmpty(), raw)
		assert.NotNil(t, sel.Items, raw)
	}
}

func TestRestoreDropsZeroAndDuplicateLines(t *testing.T) {
	e := newEngine(t, 0)

	raw := `{"items":[
		{"id":"yealink-t33g","name":"T33G","quantity":1,"unitPriceOnceOff":1450},
		{"id":"yealink-t33g","name":"T33G","quantity":4,"unitPriceOnceOff":1450},
		{"id":"yealink-t31p","name":"T31P","quantity":0,"unitPriceOnceOff":1100},
		{"id":"mystery","name":"Mystery phone","quantity":1,"unitPriceOnceOff":-5}
	],"meta":{"extensionCount":6}}`
	sel := e.Restore([]byte(raw))

	require.Len(t, sel.Items, 2)
	assert.Equal(t, 1, sel.Quantity(deskPhone))
	mystery, ok := sel.Find("mystery")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryOther, mystery.Category)
	assert.True(t, mystery.UnitPriceOnceOff.IsZero())
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	e := newEngine(t, 0)

	var got []Change
	unsubscribe := e.Subscribe(func(c Change) { got = append(got, c) })

	e.SetQuantity(switchboard, 1)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Totals.ExtensionCount)
	assertAmount(t, "1995", got[0].Totals.OnceOffSubtotal, "onceOff")

	unsubscribe()
	e.SetQuantity(switchboard, 2)
	assert.Len(t, got, 1)
}

func TestClearEmptiesEverything(t *testing.T) {
	e := newEngine(t, 0)
	e.SetQuantity(handset, 2)
	e.SetMonthlyItems([]domain.MonthlyServiceItem{CallsItem(e.Billing(), 1)})

	e.Clear()

	assert.True(t, e.Selection().IsEmpty())
	assert.Empty(t, e.MonthlyItems())
	assert.True(t, e.Totals().GrandTotalFirstInvoice.IsZero())
}

func TestRestoreLegacyIDsCollapseOntoCatalogLines(t *testing.T) {
	e := newEngine(t, 0)

	raw := `[{"id":"yealink-W73h","name":"Yealink W73H","quantity":3,"unitPriceOnceOff":1250},
		{"id":"cordless-placeholder-2","name":"Yealink W70B","quantity":1,"unitPriceOnceOff":950,"isBaseStation":true},
		{"id":"Yealink-W73H","name":"Yealink W73H","quantity":7,"unitPriceOnceOff":1250}]`
	e.LoadSelection(e.Restore([]byte(raw)))

	sel := e.Selection()
	require.Len(t, sel.Items, 2)
	assert.Equal(t, handset, sel.Items[0].ID)
	assert.Equal(t, baseStation, sel.Items[1].ID)
	assert.Equal(t, 3, sel.Quantity(handset))

	sel = e.SetQuantity("yealink-w73h", 5)
	require.Len(t, sel.Items, 2)
	assert.Equal(t, 5, sel.Quantity(handset))
	assert.Equal(t, 1, sel.Quantity(baseStation))
	assert.Equal(t, 5, sel.ExtensionCount())
	assertAmount(t, "7200", e.Totals().OnceOffSubtotal, "onceOff")
}

func TestLoadSelectionRederivesBaseStations(t *testing.T) {
	e := newEngine(t, 0)

	raw := `[{"id":"yealink-w73h","name":"Yealink W73H","quantity":9,"unitPriceOnceOff":1250},
		{"id":"yealink-w70b","name":"Yealink W70B","quantity":1,"unitPriceOnceOff":900,"isBaseStation":true}]`
	e.LoadSelection(e.Restore([]byte(raw)))

	sel := e.Selection()
	assert.Equal(t, 2, sel.Quantity(baseStation))
	bs, ok := sel.Find(baseStation)
	require.True(t, ok)
	assertAmount(t, "900", bs.UnitPriceOnceOff, "saved base station price")

	e.LoadSelection(e.Restore([]byte(`[{"id":"cordless-placeholder-2","quantity":2,"unitPriceOnceOff":950,"isBaseStation":true}]`)))
	assert.True(t, e.Selection().IsEmpty())
}

func TestLoadSelectionDropsZeroQuantities(t *testing.T) {
	e := newEngine(t, 0)

	e.LoadSelection(domain.Selection{Items: []domain.LineItem{
		{ID: "a", Name: "A", Quantity: 0},
		{ID: "b", Name: "B", Quantity: 2, UnitPriceOnceOff: dec("10")},
		{ID: "b", Name: "B again", Quantity: 5},
	}})

	sel := e.Selection()
	require.Len(t, sel.Items, 1)
	assert.Equal(t, "B", sel.Items[0].Name)
}
