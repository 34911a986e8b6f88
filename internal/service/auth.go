// Package service contains application services for access keys and inventory.
package service

import (
	"context"
	"time"

	"github.com/and161185/stock-keeper/internal/auth"
	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/limiter"
)

// AuthService issues access keys for clients that present the shared secret.
type AuthService interface {
	// IssueKey applies rate-limiting per client address and verifies the secret.
	IssueKey(ctx context.Context, secret, clientAddr string) (token string, expiresAt time.Time, err error)
}

type AuthServiceImpl struct {
	verifier auth.Verifier
	signKey  []byte
	keyTTL   time.Duration
	lim      limiter.Limiter
	now      func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(verifier auth.Verifier, signKey []byte, keyTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{verifier: verifier, signKey: signKey, keyTTL: keyTTL, lim: lim, now: time.Now}
}

// IssueKey returns a client-role access key.
func (s *AuthServiceImpl) IssueKey(ctx context.Context, secret, clientAddr string) (string, time.Time, error) {
	clientHash := limiter.HashClient(clientAddr)

	allowed, _, err := s.lim.Allow(ctx, clientHash)
	if err != nil {
		return "", time.Time{}, err
	}
	if !allowed {
		return "", time.Time{}, errs.ErrRateLimited
	}

	if !s.verifier.Verify(secret) {
		if blocked, _, ferr := s.lim.Failure(ctx, clientHash); ferr == nil && blocked {
			return "", time.Time{}, errs.ErrRateLimited
		}
		return "", time.Time{}, errs.ErrUnauthorized
	}

	// best-effort reset
	_ = s.lim.Success(ctx, clientHash)

	return auth.IssueKey(s.signKey, auth.RoleClient, s.keyTTL, s.now())
}
