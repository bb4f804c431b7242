package migrate

import (
	"context"
	"os"
	"testing"

	"voipshop/internal/db"
)

func TestApplyIsIdempotent(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	for i := 0; i < 2; i++ {
		if err := Apply(ctx, pool); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	version, dirty, err := Version(ctx, pool)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if dirty {
		t.Fatalf("schema left dirty at version %d", version)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM storefront_state WHERE false`).Scan(&n); err != nil {
		t.Fatalf("storefront_state missing: %v", err)
	}
}

func TestRollbackNoop(t *testing.T) {
	if err := Rollback(context.Background(), nil, 0); err != nil {
		t.Fatalf("expected nil for zero steps, got %v", err)
	}
}
