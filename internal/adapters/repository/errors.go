package repository

import "errors"

// Sentinel kinds for journal errors.
var (
	ErrInvalidLimit   = errors.New("invalid history limit")
	ErrInvalidEntry   = errors.New("invalid journal entry")
	ErrClosed         = errors.New("journal store closed")
	ErrUnknownBackend = errors.New("unknown journal backend")
)
