// Package common defines shared constants and sentinel errors used across
// chestkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors.
	ErrorInvalidUUID     = errors.New("invalid uuid")
	ErrorInvalidUsername = errors.New("invalid username")
	ErrorInvalidPosition = errors.New("position out of range")

	// Auth errors (malformed token string).
	ErrInvalidToken = errors.New("invalid token")

	// Token verification outcomes. Authenticate returns exactly one of these
	// on failure.
	ErrForbidden            = errors.New("forbidden")
	ErrAuthorityUnavailable = errors.New("identity authority unavailable")
	ErrStorage              = errors.New("storage error")
)
