package attestation

import "errors"

var (
	// ErrNotConfigured is returned in production mode when vendor credentials
	// are absent. Silently skipping attestation in production would defeat
	// its purpose, so the gate fails closed.
	ErrNotConfigured = errors.New("attestation verification not configured")

	// ErrVendorUnavailable is returned when the vendor verification service
	// cannot be reached
	ErrVendorUnavailable = errors.New("attestation vendor unavailable")
)
