package purchase

import "errors"

var (
	// ErrVerificationFailed is returned when the signed transaction envelope
	// cannot be cryptographically verified
	ErrVerificationFailed = errors.New("purchase verification failed")

	// ErrUnknownProduct is returned when the product has no credit mapping
	ErrUnknownProduct = errors.New("unknown product")

	// ErrAlreadyApplied is returned when the transaction ID was credited before.
	// Callers treat it as an idempotent no-op, not a failure.
	ErrAlreadyApplied = errors.New("transaction already applied")

	// ErrProductMismatch is returned when the signed payload names a different
	// product than the request
	ErrProductMismatch = errors.New("product does not match signed transaction")
)
