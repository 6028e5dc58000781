package telegram

import "errors"

// Sentinel errors.
var (
	ErrMissingToken = errors.New("telegram token is empty")
	ErrSend         = errors.New("telegram send failed")
)
