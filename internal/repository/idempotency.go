package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IdempotencyEntry is a stored response for an import request, keyed by the
// client's Idempotency-Key within a scope.
type IdempotencyEntry struct {
	Key          string
	Scope        string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Get returns nil, nil when there is no live entry.
func (r *IdempotencyRepository) Get(ctx context.Context, key, scope string) (*IdempotencyEntry, error) {
	var e IdempotencyEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, scope, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND scope = $2 AND expires_at > now()`,
		key, scope,
	).Scan(&e.Key, &e.Scope, &e.RequestHash, &e.StatusCode, &e.ResponseBody, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &e, nil
}

// Set keeps the first stored response; an expired row for the same key is
// replaced.
func (r *IdempotencyRepository) Set(ctx context.Context, e *IdempotencyEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, scope, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key, scope) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
			status_code = EXCLUDED.status_code,
			response_body = EXCLUDED.response_body,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()`,
		e.Key, e.Scope, e.RequestHash, e.StatusCode, e.ResponseBody, e.CreatedAt, e.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
