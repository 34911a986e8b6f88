package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/stock-keeper/internal/errs"
)

// Roles carried by access keys.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Claims of an access key.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueKey creates a signed HS256 key for role valid for ttl.
func IssueKey(signKey []byte, role string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if len(signKey) == 0 {
		return "", time.Time{}, errors.New("empty signing key")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, err
	}
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   role,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signKey)
	return signed, exp, err
}

// ParseKey verifies an HS256 key and returns its claims. Failures match errs.ErrUnauthorized.
func ParseKey(signKey []byte, token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: invalid key", errs.ErrUnauthorized)
	}
	if claims.Role == "" {
		return Claims{}, fmt.Errorf("%w: key without role", errs.ErrUnauthorized)
	}
	return claims, nil
}
