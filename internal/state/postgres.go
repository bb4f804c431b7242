package state

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"voipshop/internal/domain"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres stores state rows in storefront_state.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresStore{pool: pool, logger: logger}
}

func (s *postgresStore) Get(ctx context.Context, session, key string) ([]byte, error) {
	const q = `
SELECT value
FROM storefront_state
WHERE session_id = $1 AND key = $2
`
	var value []byte
	if err := s.pool.QueryRow(ctx, q, session, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		s.logger.Error("state get failed", zap.String("session", session), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (s *postgresStore) Put(ctx context.Context, session, key string, value []byte) error {
	const q = `
INSERT INTO storefront_state (session_id, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (session_id, key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = now()
`
	if _, err := s.pool.Exec(ctx, q, session, key, value); err != nil {
		s.logger.Error("state put failed", zap.String("session", session), zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, session string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `
DELETE FROM storefront_state
WHERE session_id = $1 AND key = ANY($2)
`
	if _, err := s.pool.Exec(ctx, q, session, keys); err != nil {
		s.logger.Error("state delete failed", zap.String("session", session), zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
