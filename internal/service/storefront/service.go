// Package storefront runs the cart operations for one browser session at a
// time: it restores persisted state into a fresh pricing engine, applies the
// action and writes the results back.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voipshop/internal/catalog"
	"voipshop/internal/checkout"
	"voipshop/internal/domain"
	"voipshop/internal/money"
	"voipshop/internal/pricing"
	"voipshop/internal/quoteapi"
	"voipshop/internal/state"
)

type quoteSender interface {
	CompleteOrder(ctx context.Context, p quoteapi.OrderPayload) (json.RawMessage, error)
	SendQuote(ctx context.Context, p quoteapi.QuotePayload) (json.RawMessage, error)
}

type Options struct {
	Billing     domain.BillingConfig
	MaxQuantity int
	Logger      *zap.Logger
	// Now and Rand feed quote numbers; tests pin them.
	Now  func() time.Time
	Rand *rand.Rand
}

type Service struct {
	catalog *catalog.Catalog
	store   state.Store
	quotes  quoteSender
	guard   *quoteapi.Guard
	billing domain.BillingConfig
	maxQty  int
	logger  *zap.Logger
	now     func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func New(cat *catalog.Catalog, store state.Store, quotes quoteSender, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	billing := opts.Billing
	if billing.CallBundleMinutes <= 0 {
		billing = domain.DefaultBilling()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		catalog: cat,
		store:   store,
		quotes:  quotes,
		guard:   quoteapi.NewGuard(),
		billing: billing,
		maxQty:  opts.MaxQuantity,
		logger:  logger.Named("storefront"),
		now:     now,
		rnd:     rnd,
	}
}

// CatalogItem is the public shape of a catalog entry.
type CatalogItem struct {
	ID                  string          `json:"id"`
	SKU                 string          `json:"sku"`
	Name                string          `json:"name"`
	Category            domain.Category `json:"category"`
	UnitPriceOnceOff    float64         `json:"unitPriceOnceOff"`
	PriceText           string          `json:"priceText"`
	Image               string          `json:"image"`
	IsBaseStation       bool            `json:"isBaseStation"`
	RequiresBaseStation bool            `json:"requiresBaseStation"`
}

func (s *Service) Catalog() []CatalogItem {
	entries := s.catalog.Entries()
	out := make([]CatalogItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, CatalogItem{
			ID:                  e.ID,
			SKU:                 e.SKU,
			Name:                e.Name,
			Category:            e.Category,
			UnitPriceOnceOff:    money.Float(e.UnitPriceOnceOff),
			PriceText:           money.Format(e.UnitPriceOnceOff),
			Image:               e.Image,
			IsBaseStation:       e.IsBaseStation,
			RequiresBaseStation: e.RequiresBaseStation,
		})
	}
	return out
}

// NewSession allocates a session id. Nothing is stored until the first
// change.
func (s *Service) NewSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	s.logger.Debug("session created", zap.String("session_id", id))
	return id, nil
}

// cart is the restored state of one session for the span of one call.
type cart struct {
	session *state.Session
	engine  *pricing.Engine
	pkg     *domain.PackageChoice
	porting *domain.PortingChoice
	// callBundles is negative until the customer picks a bundle.
	callBundles int
	// saved is the custom build as last written, or as restored.
	saved domain.SelectionSnapshot
}

// degraded logs a failed read. Absence is normal and stays quiet.
func (s *Service) degraded(sessionID, what string, err error) {
	if err == nil || state.IsAbsent(err) {
		return
	}
	var decodeErr *state.DecodeError
	if errors.As(err, &decodeErr) {
		s.logger.Warn("stored value unreadable, using default",
			zap.String("session_id", sessionID), zap.String("key", decodeErr.Key), zap.Error(err))
		return
	}
	s.logger.Warn("state read failed, using default",
		zap.String("session_id", sessionID), zap.String("what", what), zap.Error(err))
}

func (s *Service) open(ctx context.Context, sessionID string) *cart {
	c := &cart{
		session: state.NewSession(s.store, sessionID),
		engine: pricing.New(s.catalog, pricing.Options{
			Billing:     s.billing,
			MaxQuantity: s.maxQty,
			Logger:      s.logger.With(zap.String("session_id", sessionID)),
		}),
		callBundles: -1,
	}

	snap, err := c.session.LoadSelection(ctx)
	s.degraded(sessionID, "selection", err)
	c.engine.LoadSelection(c.engine.RestoreSnapshot(snap))
	c.saved = c.engine.Snapshot()
	c.engine.Subscribe(func(ch pricing.Change) {
		s.persistSelection(ctx, c, ch.Selection)
	})

	pkg, err := c.session.LoadPackage(ctx)
	s.degraded(sessionID, "package", err)
	c.pkg = pkg

	porting, err := c.session.LoadPorting(ctx)
	s.degraded(sessionID, "porting", err)
	c.porting = porting

	if n, err := c.session.LoadCallBundles(ctx); err == nil {
		c.callBundles = n
	} else {
		s.degraded(sessionID, "call bundles", err)
	}

	s.resetMonthly(c)
	return c
}

func (s *Service) resetMonthly(c *cart) {
	pkg := c.pkg
	if !c.engine.Selection().IsEmpty() {
		pkg = nil
	}
	bundles := checkout.ResolveCallBundles(c.callBundles, pkg, s.billing.CallBundleMinutes)
	c.engine.SetMonthlyItems(checkout.MonthlyExtras(s.billing, bundles, c.porting))
}

func (s *Service) view(c *cart) checkout.View {
	return checkout.BuildView(checkout.Inputs{
		Catalog:     s.catalog,
		Billing:     s.billing,
		Selection:   c.engine.Selection(),
		Package:     c.pkg,
		Porting:     c.porting,
		CallBundles: c.callBundles,
		Logger:      s.logger.With(zap.String("session_id", c.session.ID())),
	})
}

// persistTotals writes the summary other pages show. Failures only log.
func (s *Service) persistTotals(ctx context.Context, c *cart, v checkout.View) {
	err := c.session.SaveTotals(ctx, domain.SolutionTotals{
		Monthly: money.Float(v.Totals.MonthlyRecurringCharge),
		OnceOff: money.Float(v.Totals.OnceOffSubtotal),
	})
	if err != nil {
		s.logger.Warn("persist totals failed", zap.String("session_id", c.session.ID()), zap.Error(err))
	}
}

// persistSelection runs on every engine change and writes the custom build
// when it differs from what is stored.
func (s *Service) persistSelection(ctx context.Context, c *cart, sel domain.Selection) {
	snap := pricing.Snapshot(sel)
	if sameItems(snap.Items, c.saved.Items) {
		return
	}
	c.saved = snap
	if err := c.session.SaveSelection(ctx, snap); err != nil {
		s.logger.Warn("persist selection failed, keeping in-memory result",
			zap.String("session_id", c.session.ID()), zap.Error(err))
		return
	}
	if len(snap.Items) > 0 && c.pkg != nil {
		s.logger.Info("custom build replaced package",
			zap.String("session_id", c.session.ID()), zap.String("package", c.pkg.Name))
		c.pkg = nil
	}
}

func sameItems(a, b []domain.SnapshotItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Service) finish(ctx context.Context, c *cart) checkout.View {
	v := s.view(c)
	s.persistTotals(ctx, c, v)
	return v
}

// Cart returns the checkout view of the session.
func (s *Service) Cart(ctx context.Context, sessionID string) checkout.View {
	return s.finish(ctx, s.open(ctx, sessionID))
}

// Snapshot returns the persisted custom-build form.
func (s *Service) Snapshot(ctx context.Context, sessionID string) domain.SelectionSnapshot {
	return s.open(ctx, sessionID).engine.Snapshot()
}

// Totals returns the summary last written for the session, the figures other
// pages show. Nothing stored reads as zero.
func (s *Service) Totals(ctx context.Context, sessionID string) domain.SolutionTotals {
	t, err := state.NewSession(s.store, sessionID).LoadTotals(ctx)
	if err != nil {
		s.degraded(sessionID, "totals", err)
		return domain.SolutionTotals{}
	}
	return t
}

// SetQuantity sets a hardware quantity. Unknown ids leave the cart as is.
func (s *Service) SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) checkout.View {
	c := s.open(ctx, sessionID)
	c.engine.SetQuantity(itemID, quantity)
	s.resetMonthly(c)
	return s.finish(ctx, c)
}

// Increment applies a +/- press on a hardware line.
func (s *Service) Increment(ctx context.Context, sessionID, itemID string, delta int) checkout.View {
	c := s.open(ctx, sessionID)
	c.engine.IncrementQuantity(itemID, delta)
	s.resetMonthly(c)
	return s.finish(ctx, c)
}

// AdjustMonthly applies a +/- press on a monthly line. Only the calls line
// is adjustable; other known lines are returned unchanged.
func (s *Service) AdjustMonthly(ctx context.Context, sessionID, name string, delta int) (checkout.View, error) {
	c := s.open(ctx, sessionID)
	if isFixedMonthly(name) {
		return s.finish(ctx, c), nil
	}
	item, ok := c.engine.AdjustMonthlyItem(name, delta)
	if !ok {
		return checkout.View{}, fmt.Errorf("monthly item %q: %w", name, domain.ErrNotFound)
	}
	if item.IsCalls() {
		c.callBundles = item.Quantity
		if err := c.session.SaveCallBundles(ctx, item.Quantity); err != nil {
			s.logger.Warn("persist call bundles failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return s.finish(ctx, c), nil
}

func isFixedMonthly(name string) bool {
	name = strings.TrimSpace(name)
	return strings.EqualFold(name, domain.MonthlyPlatform) || strings.EqualFold(name, domain.MonthlyExtensionFee)
}

// SelectPackage replaces the cart with a package. Any custom build and
// explicit calls choice are dropped.
func (s *Service) SelectPackage(ctx context.Context, sessionID string, pkg domain.PackageChoice) (checkout.View, error) {
	pkg.Name = strings.TrimSpace(pkg.Name)
	if pkg.Name == "" {
		return checkout.View{}, checkout.ValidationErrors{"name": "required"}
	}
	devices := make([]domain.PackageDevice, 0, len(pkg.Devices))
	for _, d := range pkg.Devices {
		if d.Number < 0 {
			return checkout.View{}, checkout.ValidationErrors{"devices": "min"}
		}
		if strings.TrimSpace(d.Device) != "" && d.Number > 0 {
			devices = append(devices, d)
		}
	}
	pkg.Devices = devices
	if pkg.Extensions < 0 || pkg.MinutesIncluded < 0 {
		return checkout.View{}, checkout.ValidationErrors{"extensions": "min"}
	}

	c := s.open(ctx, sessionID)
	c.engine.Clear()
	c.pkg = &pkg
	c.callBundles = -1
	if err := c.session.SavePackage(ctx, pkg); err != nil {
		s.logger.Warn("persist package failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := c.session.ClearCallBundles(ctx); err != nil {
		s.logger.Warn("clear call bundles failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.resetMonthly(c)
	s.logger.Info("package selected", zap.String("session_id", sessionID), zap.String("package", pkg.Name))
	return s.finish(ctx, c), nil
}

// SelectPorting stores a validated new-number or port choice.
func (s *Service) SelectPorting(ctx context.Context, sessionID string, p domain.PortingChoice) (checkout.View, error) {
	clean, err := checkout.ValidatePorting(p)
	if err != nil {
		return checkout.View{}, err
	}
	c := s.open(ctx, sessionID)
	c.porting = &clean
	if err := c.session.SavePorting(ctx, clean); err != nil {
		s.logger.Warn("persist porting failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.resetMonthly(c)
	return s.finish(ctx, c), nil
}

func (s *Service) ClearPorting(ctx context.Context, sessionID string) checkout.View {
	c := s.open(ctx, sessionID)
	c.porting = nil
	if err := c.session.ClearPorting(ctx); err != nil {
		s.logger.Warn("clear porting failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.resetMonthly(c)
	return s.finish(ctx, c)
}

// ClearCart empties the session. Totals are rewritten as zero.
func (s *Service) ClearCart(ctx context.Context, sessionID string) checkout.View {
	sess := state.NewSession(s.store, sessionID)
	if err := sess.ClearCart(ctx); err != nil {
		s.logger.Warn("clear cart failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	c := s.open(ctx, sessionID)
	c.engine.Clear()
	c.pkg, c.porting, c.callBundles = nil, nil, -1
	return s.finish(ctx, c)
}

func (s *Service) acquire(sessionID string) (func(), error) {
	release, ok := s.guard.TryAcquire(sessionID)
	if !ok {
		return nil, domain.ErrSubmissionInFlight
	}
	return release, nil
}

// CompleteOrder validates the order form and submits the cart exactly as
// the checkout view renders it. A second submission while one is running
// fails with domain.ErrSubmissionInFlight.
func (s *Service) CompleteOrder(ctx context.Context, sessionID string, d checkout.OrderDetails) (json.RawMessage, error) {
	release, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := checkout.Validate(d.Customer); err != nil {
		return nil, err
	}
	if d.Debit != nil {
		if err := checkout.ValidateDebit(*d.Debit); err != nil {
			return nil, err
		}
	}
	if d.Port != nil {
		if err := checkout.ValidatePort(*d.Port); err != nil {
			return nil, err
		}
	}

	c := s.open(ctx, sessionID)
	v := s.view(c)
	if v.IsEmpty() {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	payload := checkout.BuildOrderPayload(v, d, s.billing.CallBundleMinutes)
	start := time.Now()
	resp, err := s.quotes.CompleteOrder(ctx, payload)
	if err != nil {
		s.logger.Error("complete order failed",
			zap.String("session_id", sessionID), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	s.logger.Info("order submitted",
		zap.String("session_id", sessionID),
		zap.String("once_off", money.Format(v.Totals.OnceOffSubtotal)),
		zap.String("monthly", money.Format(v.Totals.MonthlyRecurringCharge)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// SendQuote emails a quote for the current cart.
func (s *Service) SendQuote(ctx context.Context, sessionID string, customer checkout.Customer) (json.RawMessage, error) {
	release, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := checkout.Validate(customer); err != nil {
		return nil, err
	}

	c := s.open(ctx, sessionID)
	v := s.view(c)
	if v.IsEmpty() {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	s.rndMu.Lock()
	payload := checkout.BuildQuotePayload(v, customer, s.now(), s.rnd)
	s.rndMu.Unlock()

	resp, err := s.quotes.SendQuote(ctx, payload)
	if err != nil {
		s.logger.Error("send quote failed",
			zap.String("session_id", sessionID), zap.String("quote_number", payload.QuoteNumber), zap.Error(err))
		return nil, err
	}
	s.logger.Info("quote sent", zap.String("session_id", sessionID), zap.String("quote_number", payload.QuoteNumber))
	return resp, nil
}

// Ping reports whether the state store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
