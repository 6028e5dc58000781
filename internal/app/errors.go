package service

import "errors"

// Sentinel errors returned by Guide and History.
var (
	// ErrEmptyInput is the warning path: nothing to analyze.
	ErrEmptyInput = errors.New("please enter your current feelings or study challenges")

	ErrInvalidDays     = errors.New("days until exam out of range")
	ErrClassifier      = errors.New("emotion classification failed")
	ErrNoClassifier    = errors.New("classifier is required")
	ErrJournalDisabled = errors.New("journal disabled")
)
