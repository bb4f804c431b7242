package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	skucatalog "voipshop/internal/catalog"
	"voipshop/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("catalog_repo")}
}

const entryColumns = `sku, item_id, name, category, unit_price_once_off::text, image, is_base_station, requires_base_station, supports_handsets`

func scanEntry(row pgx.Row) (skucatalog.Entry, error) {
	var (
		e        skucatalog.Entry
		category string
		price    string
	)
	if err := row.Scan(&e.SKU, &e.ID, &e.Name, &category, &price, &e.Image, &e.IsBaseStation, &e.RequiresBaseStation, &e.SupportsHandsets); err != nil {
		return skucatalog.Entry{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return skucatalog.Entry{}, fmt.Errorf("catalog repo: price for %s: %w", e.SKU, err)
	}
	e.UnitPriceOnceOff = p
	e.Category = domain.ParseCategory(category)
	return e, nil
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]skucatalog.Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM catalog_entries ORDER BY sku`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []skucatalog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows failed", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*skucatalog.Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM catalog_entries WHERE sku = $1`
	e, err := scanEntry(r.pool.QueryRow(ctx, q, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("get not found", zap.String("sku", sku))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get failed", zap.String("sku", sku), zap.Error(err))
		return nil, err
	}
	return &e, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, e skucatalog.Entry) error {
	if e.SKU == "" || e.ID == "" || e.Name == "" {
		return fmt.Errorf("%w: sku, id and name are required", domain.ErrInvalidInput)
	}
	if e.UnitPriceOnceOff.IsNegative() {
		return fmt.Errorf("%w: negative price for %s", domain.ErrInvalidInput, e.SKU)
	}
	const q = `
INSERT INTO catalog_entries (sku, item_id, name, category, unit_price_once_off, image, is_base_station, requires_base_station, supports_handsets)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
ON CONFLICT (sku) DO UPDATE SET
    item_id = EXCLUDED.item_id,
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    unit_price_once_off = EXCLUDED.unit_price_once_off,
    image = EXCLUDED.image,
    is_base_station = EXCLUDED.is_base_station,
    requires_base_station = EXCLUDED.requires_base_station,
    supports_handsets = EXCLUDED.supports_handsets,
    updated_at = now()
`
	_, err := r.pool.Exec(ctx, q,
		e.SKU,
		e.ID,
		e.Name,
		string(e.Category),
		e.UnitPriceOnceOff.String(),
		e.Image,
		e.IsBaseStation,
		e.RequiresBaseStation,
		e.SupportsHandsets,
	)
	if err != nil {
		r.logger.Error("upsert failed", zap.String("sku", e.SKU), zap.Error(err))
		return err
	}
	r.logger.Debug("upserted", zap.String("sku", e.SKU), zap.String("price", e.UnitPriceOnceOff.String()))
	return nil
}

func (r *postgresRepo) ListAliases(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT alias, sku FROM catalog_aliases ORDER BY alias`)
	if err != nil {
		r.logger.Error("list aliases failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var alias, sku string
		if err := rows.Scan(&alias, &sku); err != nil {
			return nil, err
		}
		out[alias] = sku
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpsertAlias(ctx context.Context, alias, sku string) error {
	const q = `
INSERT INTO catalog_aliases (alias, sku)
VALUES ($1, $2)
ON CONFLICT (alias) DO UPDATE SET sku = EXCLUDED.sku
`
	if _, err := r.pool.Exec(ctx, q, alias, sku); err != nil {
		r.logger.Error("upsert alias failed", zap.String("alias", alias), zap.String("sku", sku), zap.Error(err))
		return err
	}
	return nil
}
