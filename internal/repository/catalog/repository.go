package catalog

import (
	"context"

	skucatalog "voipshop/internal/catalog"
)

type Repository interface {
	ListAll(ctx context.Context) ([]skucatalog.Entry, error)
	GetBySKU(ctx context.Context, sku string) (*skucatalog.Entry, error)
	Upsert(ctx context.Context, e skucatalog.Entry) error
	ListAliases(ctx context.Context) (map[string]string, error)
	UpsertAlias(ctx context.Context, alias, sku string) error
}

// Load builds a catalog from whatever the repository holds.
func Load(ctx context.Context, repo Repository) (*skucatalog.Catalog, error) {
	entries, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := repo.ListAliases(ctx)
	if err != nil {
		return nil, err
	}
	return skucatalog.New(entries, aliases, skucatalog.Options{})
}
