package db

import (
	"context"
	"os"
	"testing"
)

func TestConnect_BadDSN(t *testing.T) {
	if _, err := Connect(context.Background(), "host=localhost port=notaport", nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConnect_SetsApplicationName(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var name string
	if err := pool.QueryRow(ctx, `SHOW application_name`).Scan(&name); err != nil {
		t.Fatalf("show application_name: %v", err)
	}
	if name == "" {
		t.Fatal("application_name not set")
	}
}
