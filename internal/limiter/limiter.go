// Package limiter throttles access-key issuance per client.
package limiter

import (
	"context"
	"time"
)

// Limiter controls token attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and an optional retry-after.
	Allow(ctx context.Context, clientHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful attempt.
	Success(ctx context.Context, clientHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, clientHash []byte) (bool, time.Duration, error)
}
