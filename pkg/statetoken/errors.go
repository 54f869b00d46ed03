package statetoken

import "errors"

var (
	ErrNoSecret       = errors.New("secret is required")
	ErrSecretTooShort = errors.New("secret must be at least 32 bytes")
	ErrInvalidTTL     = errors.New("ttl must be positive")

	// Decode failures, in check order. ErrTamperedToken must stay
	// distinguishable from ErrMalformedToken for logging, but both are
	// presented identically at the user-facing boundary.
	ErrMalformedToken = errors.New("malformed token")
	ErrTamperedToken  = errors.New("token integrity check failed")
	ErrSchemaMismatch = errors.New("unsupported token schema version")
	ErrInvalidPayload = errors.New("invalid token payload")
	ErrExpiredToken   = errors.New("token expired")
)
