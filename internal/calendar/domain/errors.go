package domain

import "errors"

var (
	// ErrBackendUnavailable is returned when the calendar backend cannot be reached
	// or its circuit breaker is open.
	ErrBackendUnavailable = errors.New("calendar backend unavailable")
	// ErrMalformedResponse is returned when a backend answers with an unexpected payload.
	ErrMalformedResponse = errors.New("malformed calendar response")
	// ErrNotAuthenticated is returned when no usable credentials are stored.
	ErrNotAuthenticated = errors.New("calendar not authenticated")
	ErrMissingSummary   = errors.New("event summary is required")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
