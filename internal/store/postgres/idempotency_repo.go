package postgres

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyago/travel-bookings/internal/store"
)

// IdempotencyRepo records which booking a client-supplied idempotency key
// produced. Keys are hashed before storage and expire after a day.
type IdempotencyRepo struct{ pool *pgxpool.Pool }

func NewIdempotencyRepo(pool *pgxpool.Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

func hashKey(key string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

func (r *IdempotencyRepo) Lookup(ctx context.Context, key string) (string, error) {
	const q = `SELECT booking_id FROM booking_idempotency
  WHERE key_hash=$1 AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var bookingID string
	err := r.pool.QueryRow(ctx, q, hashKey(key)).Scan(&bookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return bookingID, err
}

func (r *IdempotencyRepo) Remember(ctx context.Context, key, bookingID string) error {
	const q = `INSERT INTO booking_idempotency (key_hash, booking_id, expires_at)
  VALUES ($1, $2, $3)
  ON CONFLICT (key_hash) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, hashKey(key), bookingID, time.Now().Add(24*time.Hour))
	return err
}

// CleanupExpired removes stale idempotency records. Safe to run periodically.
func (r *IdempotencyRepo) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `DELETE FROM booking_idempotency WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

var _ store.IdempotencyStore = (*IdempotencyRepo)(nil)
