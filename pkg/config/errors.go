package config

import "errors"

var (
	// ErrParsingConfig wraps env.Parse failures, including missing
	// variables marked required.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
)
