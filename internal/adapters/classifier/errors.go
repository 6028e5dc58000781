package classifier

import "errors"

// Sentinel errors.
var (
	// ErrUnavailable wraps transport and provider failures.
	ErrUnavailable = errors.New("emotion classifier unavailable")

	ErrUnknownBackend = errors.New("unknown classifier backend")
	ErrMissingAPIKey  = errors.New("classifier api key is required")
)
