package seed

import (
	"context"
	"fmt"
	"sort"

	"voipshop/internal/catalog"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, e catalog.Entry) error
	UpsertAlias(ctx context.Context, alias, sku string) error
}

// Apply writes every entry and alias of cat. It is idempotent because the
// writer upserts on sku and alias.
func Apply(ctx context.Context, w CatalogWriter, cat *catalog.Catalog) error {
	for _, e := range cat.Entries() {
		if err := w.Upsert(ctx, e); err != nil {
			return fmt.Errorf("upsert entry %s: %w", e.SKU, err)
		}
	}

	aliases := cat.Aliases()
	names := make([]string, 0, len(aliases))
	for a := range aliases {
		names = append(names, a)
	}
	sort.Strings(names)
	for _, a := range names {
		if err := w.UpsertAlias(ctx, a, aliases[a]); err != nil {
			return fmt.Errorf("upsert alias %s: %w", a, err)
		}
	}
	return nil
}
