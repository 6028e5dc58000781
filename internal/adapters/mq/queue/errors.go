package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("journal queue closed")
	ErrFull   = errors.New("journal queue full")
)
