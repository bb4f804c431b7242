package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	skucatalog "voipshop/internal/catalog"
	"voipshop/internal/domain"
	"voipshop/internal/migrate"
)

func TestPostgres_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)

	entry := skucatalog.Entry{
		SKU:                 "YEALINK_W73H",
		ID:                  "yealink-w73h",
		Name:                "Yealink W73H",
		Category:            domain.CategoryCordless,
		UnitPriceOnceOff:    decimal.RequireFromString("1250.00"),
		RequiresBaseStation: true,
	}
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	entry.UnitPriceOnceOff = decimal.RequireFromString("1299.50")
	entry.Image = "Assets/w73h.webp"
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, err := repo.GetBySKU(ctx, "YEALINK_W73H")
	if err != nil {
		t.Fatalf("GetBySKU: %v", err)
	}
	if !got.UnitPriceOnceOff.Equal(decimal.RequireFromString("1299.50")) || got.Image != "Assets/w73h.webp" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.Category != domain.CategoryCordless || !got.RequiresBaseStation {
		t.Fatalf("flags not persisted: %+v", got)
	}

	if _, err := repo.GetBySKU(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_AliasesAndLoad(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	for _, e := range skucatalog.Default().Entries() {
		if err := repo.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert %s: %v", e.SKU, err)
		}
	}
	if err := repo.UpsertAlias(ctx, "Legacy-W59R", "YEALINK_W59R"); err != nil {
		t.Fatalf("UpsertAlias: %v", err)
	}

	cat, err := Load(ctx, repo)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.Entries()) != len(skucatalog.Default().Entries()) {
		t.Fatalf("expected %d entries, got %d", len(skucatalog.Default().Entries()), len(cat.Entries()))
	}
	if e, ok := cat.LookupID("legacy-w59r"); !ok || e.SKU != "YEALINK_W59R" {
		t.Fatalf("alias did not resolve: %+v %v", e, ok)
	}
	if _, ok := cat.BaseStation(); !ok {
		t.Fatalf("expected a base station")
	}
}

func TestUpsert_RejectsNegativePrice(t *testing.T) {
	repo := NewPostgres(nil, nil)
	err := repo.Upsert(context.Background(), skucatalog.Entry{SKU: "X", ID: "x", Name: "X", UnitPriceOnceOff: decimal.NewFromInt(-1)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type stubRepo struct {
	entries []skucatalog.Entry
	aliases map[string]string
	err     error
}

func (s stubRepo) ListAll(context.Context) ([]skucatalog.Entry, error) { return s.entries, s.err }
func (s stubRepo) GetBySKU(context.Context, string) (*skucatalog.Entry, error) {
	return nil, domain.ErrNotFound
}
func (s stubRepo) Upsert(context.Context, skucatalog.Entry) error { return nil }
func (s stubRepo) ListAliases(context.Context) (map[string]string, error) {
	return s.aliases, nil
}
func (s stubRepo) UpsertAlias(context.Context, string, string) error { return nil }

func TestLoad_RejectsDanglingAlias(t *testing.T) {
	repo := stubRepo{
		entries: []skucatalog.Entry{{SKU: "A", ID: "a", Name: "A"}},
		aliases: map[string]string{"old-a": "B"},
	}
	if _, err := Load(context.Background(), repo); err == nil {
		t.Fatalf("expected error for alias to unknown sku")
	}
}

func TestLoad_PropagatesListError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Load(context.Background(), stubRepo{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE catalog_aliases, catalog_entries CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
