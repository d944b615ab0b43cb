// Package postgres stores state snapshots in a Postgres table through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/caribe/factoring-bfa-go/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("postgres")

const schema = `
CREATE TABLE IF NOT EXISTS factoring_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a StateStore over the factoring_kv table.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPool parses connStr, opens a pool and pings it.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// NewStore creates the table when missing and returns the store.
func NewStore(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create factoring_kv: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Postgres.Load")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key))

	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM factoring_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "postgres/load", Err: err}
	}
	return value, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "Postgres.Save")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key), attribute.Int("storage.bytes", len(value)))

	_, err := s.pool.Exec(ctx, `
		INSERT INTO factoring_kv (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value))
	if err != nil {
		return &domain.ErrExternalService{Service: "postgres/save", Err: err}
	}
	s.logger.Debug("postgres store: saved", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
