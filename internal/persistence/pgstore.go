package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStateStore is a PostgreSQL-backed StateStore using pgx/v5. All
// snapshots live in a single upsert table keyed by store name.
type PgStateStore struct {
	pool *pgxpool.Pool
}

// NewPgStateStore creates a PostgreSQL state store.
func NewPgStateStore(pool *pgxpool.Pool) *PgStateStore {
	return &PgStateStore{pool: pool}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PgStateStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS store_snapshots (
			name       TEXT PRIMARY KEY,
			state      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Save replaces the snapshot stored under name.
func (s *PgStateStore) Save(ctx context.Context, name string, state []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO store_snapshots (name, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET state = $2, updated_at = $3`,
		name, state, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (s *PgStateStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Load returns the snapshot stored under name.
func (s *PgStateStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var state []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM store_snapshots WHERE name = $1`, name,
	).Scan(&state)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return state, true, nil
}
