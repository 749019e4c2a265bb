package analysis

import "errors"

var (
	// ErrInvalidParameters is returned when a water reading is outside the
	// accepted input range
	ErrInvalidParameters = errors.New("invalid water parameters")

	// ErrUpstreamUnavailable is returned when the analysis service times out,
	// errors, or returns a malformed response
	ErrUpstreamUnavailable = errors.New("analysis service unavailable")
)
