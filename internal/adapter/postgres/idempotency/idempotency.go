package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portidempotency "github.com/alanyang/project-registry/internal/port/idempotency"
)

var _ portidempotency.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// New returns a store whose keys stop matching once they are older than ttl.
// A non-positive ttl keeps keys forever.
func New(pool *pgxpool.Pool, ttl time.Duration) *Repository {
	return &Repository{pool: pool, ttl: ttl}
}

// Check looks up an existing idempotency key. Returns the stored result JSON,
// whether the key exists, and any error.
func (r *Repository) Check(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT result_jsonb FROM processed_operations
		WHERE idempotency_key = $1 AND ($2::bigint <= 0 OR created_at > NOW() - make_interval(secs => $2))`

	var result []byte
	err := r.pool.QueryRow(ctx, query, key, int64(r.ttl.Seconds())).Scan(&result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checking idempotency key: %w", err)
	}
	return result, true, nil
}

// Store records a processed operation keyed by the idempotency key. An
// expired row is replaced; a live one is kept.
func (r *Repository) Store(ctx context.Context, key, opType string, resultJSON []byte) error {
	query := `
		INSERT INTO processed_operations (idempotency_key, operation_type, result_jsonb, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (idempotency_key) DO UPDATE
		SET operation_type = EXCLUDED.operation_type,
		    result_jsonb   = EXCLUDED.result_jsonb,
		    created_at     = EXCLUDED.created_at
		WHERE $4::bigint > 0 AND processed_operations.created_at <= NOW() - make_interval(secs => $4)`

	if _, err := r.pool.Exec(ctx, query, key, opType, resultJSON, int64(r.ttl.Seconds())); err != nil {
		return fmt.Errorf("storing idempotency key: %w", err)
	}
	return nil
}
