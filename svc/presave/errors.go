package presave

import "errors"

var (
	// ErrInvalidLink is the single user-facing failure for anything wrong
	// with a returned state token: malformed, tampered, replayed or stale.
	// The distinctions stay in logs only, so a forger learns nothing from
	// the response.
	ErrInvalidLink = errors.New("link invalid or expired")

	// ErrProviderFailure covers failures talking to the streaming provider
	// after the state token verified.
	ErrProviderFailure = errors.New("provider request failed")

	ErrInvalidCode = errors.New("authorization code rejected by provider")
)
