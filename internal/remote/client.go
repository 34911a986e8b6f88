// Package remote is the HTTP client of the optional remote backend.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/convert"
	"github.com/and161185/stock-keeper/internal/errs"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultFailures = 5
	defaultCooldown = 30 * time.Second
)

// Config holds connection settings.
type Config struct {
	BaseURL string
	Key     string // sent as apikey and bearer token
	Timeout time.Duration

	// Breaker opens after this many consecutive unavailability errors
	// and stays open for Cooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client is a resty-backed client of the REST object store.
type Client struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

// New builds a client. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultCooldown
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.Key != "" {
		rc.SetHeader("apikey", cfg.Key).SetAuthToken(cfg.Key)
	}

	log = log.Named("remote")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// rejections by the backend prove it is reachable
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, errs.ErrRemoteUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("circuit", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{http: rc, cb: cb, log: log}
}

// do runs one request through the breaker and classifies the outcome.
func (c *Client) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) error {
	_, err := c.cb.Execute(func() (any, error) {
		apiErr := new(convert.ErrorResponse)
		resp, err := send(c.http.R().SetContext(ctx).SetError(apiErr))
		if err != nil {
			return nil, errs.Remote(op, err)
		}
		return nil, classify(op, resp, apiErr)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = errs.Remote(op, err)
	}
	if errors.Is(err, errs.ErrRemoteUnavailable) {
		c.log.Warn("remote call failed", zap.String("op", op), zap.Error(err))
	}
	return err
}

func classify(op string, resp *resty.Response, apiErr *convert.ErrorResponse) error {
	code := resp.StatusCode()
	if code < http.StatusBadRequest {
		return nil
	}
	msg := apiErr.Error
	if msg == "" {
		msg = http.StatusText(code)
	}
	switch code {
	case http.StatusBadRequest:
		return &errs.ValidationError{Field: apiErr.Field, Reason: msg}
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", op, errs.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w: %s", op, errs.ErrConflict, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, errs.ErrRateLimited)
	default:
		return errs.Remote(op, fmt.Errorf("status %d: %s", code, msg))
	}
}
