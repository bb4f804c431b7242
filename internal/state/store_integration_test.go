package state

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipshop/internal/migrate"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	session := uuid.NewString()

	require.NoError(t, store.Ping(ctx))

	_, err := store.Get(ctx, session, KeyCustomBuild)
	assert.True(t, IsAbsent(err))

	require.NoError(t, store.Put(ctx, session, KeyCustomBuild, []byte(`[]`)))
	require.NoError(t, store.Put(ctx, session, KeyCustomBuild, []byte(`[{"id":"x"}]`)))
	v, err := store.Get(ctx, session, KeyCustomBuild)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x"}]`, string(v))

	require.NoError(t, store.Put(ctx, session, KeyBuildMeta, []byte(`{"extensionCount":1}`)))
	require.NoError(t, store.Delete(ctx, session, KeyCustomBuild, KeyBuildMeta))
	_, err = store.Get(ctx, session, KeyBuildMeta)
	assert.True(t, IsAbsent(err))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	exerciseStore(t, NewPostgres(pool, nil))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer client.Close()

	exerciseStore(t, NewRedis(client, time.Minute))
}
