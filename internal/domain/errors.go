package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks input rejected before any state is touched.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSubmissionInFlight is returned when a second order/quote submission
	// starts while the first one is still running for the same session.
	ErrSubmissionInFlight = errors.New("submission already in flight")
)
