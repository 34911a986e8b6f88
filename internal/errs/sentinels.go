// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/remote/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates user input failed a precondition.
	ErrValidation = errors.New("validation")

	// ErrRemoteUnavailable indicates the remote backend could not be reached or failed.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrStorage indicates local persistence failed.
	ErrStorage = errors.New("storage")

	// ErrConflict indicates a write was rejected because of the current state (e.g., not enough stock).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
