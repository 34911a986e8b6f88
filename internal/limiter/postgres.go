package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Policy tunes the limiter.
type Policy struct {
	Window   time.Duration // failures older than this restart the count
	MaxFails int           // failures within Window before a block
	BlockFor time.Duration
}

// DefaultPolicy allows five failures per quarter hour.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is a PostgreSQL-backed limiter with a sliding window and lockout, keyed by client hash.
type PG struct {
	db  Querier
	pol Policy
	now func() time.Time
}

// NewPG constructs a limiter over a pool or a transaction.
func NewPG(db Querier, pol Policy) *PG {
	if pol.MaxFails <= 0 {
		pol = DefaultPolicy
	}
	return &PG{db: db, pol: pol, now: time.Now}
}

// HashClient returns a stable hash of a client address so raw addresses are never stored.
func HashClient(addr string) []byte {
	h := sha256.Sum256([]byte(addr))
	return h[:]
}

// Allow reports whether an attempt is currently allowed and how long to wait otherwise.
func (l *PG) Allow(ctx context.Context, clientHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE client_hash=$1`
	var blockedUntil time.Time
	err := l.db.QueryRow(ctx, q, clientHash).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	if wait := blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success resets counters for the client.
func (l *PG) Success(ctx context.Context, clientHash []byte) error {
	const q = `
INSERT INTO auth_limiter (client_hash, fail_count, blocked_until, updated_at)
VALUES ($1, 0, 'epoch', now())
ON CONFLICT (client_hash)
DO UPDATE SET fail_count = 0, blocked_until = 'epoch', updated_at = now()`
	_, err := l.db.Exec(ctx, q, clientHash)
	return err
}

// Failure records a failed attempt and blocks the client once MaxFails is reached.
func (l *PG) Failure(ctx context.Context, clientHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO auth_limiter (client_hash, fail_count, blocked_until, updated_at)
VALUES ($1, 1, 'epoch', now())
ON CONFLICT (client_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - auth_limiter.updated_at > $2::interval
                    THEN 1 ELSE auth_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.db.QueryRow(ctx, q, clientHash, l.pol.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.pol.MaxFails {
		return false, 0, nil
	}

	const upd = `UPDATE auth_limiter SET blocked_until = $2 WHERE client_hash = $1`
	if _, err := l.db.Exec(ctx, upd, clientHash, l.now().Add(l.pol.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.pol.BlockFor, nil
}
