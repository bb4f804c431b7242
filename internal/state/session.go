package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"voipshop/internal/domain"
)

// Session reads and writes the typed storefront keys for one browser
// session. Loads are Result-style: on failure they return the documented
// default together with the reason (domain.ErrNotFound, *DecodeError or a
// store error).
type Session struct {
	store Store
	id    string
}

func NewSession(store Store, id string) *Session {
	return &Session{store: store, id: id}
}

func (s *Session) ID() string { return s.id }

func load[T any](ctx context.Context, s *Session, key string) (T, error) {
	var zero T
	raw, err := s.store.Get(ctx, s.id, key)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, &DecodeError{Key: key, Err: err}
	}
	return v, nil
}

func (s *Session) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Put(ctx, s.id, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SaveSelection writes the custom build items and meta. A non-empty build
// replaces any previously selected package.
func (s *Session) SaveSelection(ctx context.Context, snap domain.SelectionSnapshot) error {
	items := snap.Items
	if items == nil {
		items = []domain.SnapshotItem{}
	}
	if err := s.save(ctx, KeyCustomBuild, items); err != nil {
		return err
	}
	if err := s.save(ctx, KeyBuildMeta, snap.Meta); err != nil {
		return err
	}
	if len(items) > 0 {
		return s.store.Delete(ctx, s.id, KeySelectedPackage)
	}
	return nil
}

// LoadSelection returns an empty snapshot when nothing usable is stored. A
// missing or malformed meta is recomputed from the items.
func (s *Session) LoadSelection(ctx context.Context) (domain.SelectionSnapshot, error) {
	empty := domain.SelectionSnapshot{Items: []domain.SnapshotItem{}}

	items, err := load[[]domain.SnapshotItem](ctx, s, KeyCustomBuild)
	if err != nil {
		return empty, err
	}
	if items == nil {
		items = []domain.SnapshotItem{}
	}
	snap := domain.SelectionSnapshot{Items: items}

	meta, err := load[domain.SelectionMeta](ctx, s, KeyBuildMeta)
	if err != nil {
		for _, it := range items {
			if !it.IsBaseStation && it.Quantity > 0 {
				meta.ExtensionCount += it.Quantity
			}
		}
	}
	snap.Meta = meta
	return snap, nil
}

func (s *Session) SaveTotals(ctx context.Context, t domain.SolutionTotals) error {
	return s.save(ctx, KeySolutionTotals, t)
}

func (s *Session) LoadTotals(ctx context.Context) (domain.SolutionTotals, error) {
	return load[domain.SolutionTotals](ctx, s, KeySolutionTotals)
}

// SavePackage stores a package choice and drops the custom build it
// supersedes.
func (s *Session) SavePackage(ctx context.Context, p domain.PackageChoice) error {
	if err := s.save(ctx, KeySelectedPackage, p); err != nil {
		return err
	}
	return s.store.Delete(ctx, s.id, KeyCustomBuild, KeyBuildMeta)
}

func (s *Session) LoadPackage(ctx context.Context) (*domain.PackageChoice, error) {
	p, err := load[*domain.PackageChoice](ctx, s, KeySelectedPackage)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *Session) SavePorting(ctx context.Context, p domain.PortingChoice) error {
	return s.save(ctx, KeyVirtualNumber, p)
}

func (s *Session) ClearPorting(ctx context.Context) error {
	return s.store.Delete(ctx, s.id, KeyVirtualNumber)
}

func (s *Session) LoadPorting(ctx context.Context) (*domain.PortingChoice, error) {
	p, err := load[*domain.PortingChoice](ctx, s, KeyVirtualNumber)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *Session) SaveCallBundles(ctx context.Context, n int) error {
	return s.save(ctx, KeyCallBundles, n)
}

// LoadCallBundles defaults to zero (pay-as-you-go).
func (s *Session) LoadCallBundles(ctx context.Context) (int, error) {
	n, err := load[int](ctx, s, KeyCallBundles)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &DecodeError{Key: KeyCallBundles, Err: errors.New("negative bundle count")}
	}
	return n, nil
}

// ClearCallBundles forgets an explicit calls choice so the package default
// applies again.
func (s *Session) ClearCallBundles(ctx context.Context) error {
	return s.store.Delete(ctx, s.id, KeyCallBundles)
}

// ClearCart removes every key that contributes to the cart.
func (s *Session) ClearCart(ctx context.Context) error {
	return s.store.Delete(ctx, s.id,
		KeySelectedPackage,
		KeyCustomBuild,
		KeyVirtualNumber,
		KeyBuildMeta,
		KeyCallBundles,
	)
}

// IsAbsent reports whether err only means "nothing stored yet".
func IsAbsent(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
