package attestation

import "context"

// Outcome is the result of verifying a device attestation token.
type Outcome string

const (
	// OutcomeVerified means the vendor confirmed the token.
	OutcomeVerified Outcome = "verified"
	// OutcomeRejected means the token was absent, forged, replayed or expired.
	// Rejection is terminal for the request; attestation tokens are
	// single-use and short-lived, so there is nothing to retry.
	OutcomeRejected Outcome = "rejected"
	// OutcomeNotConfigured means no vendor credentials are configured and the
	// deployment mode permits proceeding without attestation.
	OutcomeNotConfigured Outcome = "not_configured"
)

// RejectReason distinguishes why a token was rejected, so the client can be
// told to update rather than told the device itself is untrusted.
type RejectReason string

const (
	ReasonTokenMissing RejectReason = "token_missing"
	ReasonTokenInvalid RejectReason = "token_invalid"
)

// Verification is the outcome of one attestation attempt. It is scoped to a
// single request and never persisted.
type Verification struct {
	Outcome Outcome
	Reason  RejectReason
}

// Gate validates an opaque device-issued attestation token against the vendor
// verification service before any credit-consuming action is authorized.
type Gate interface {
	// Verify checks the token for the given device. In production mode an
	// unconfigured gate returns ErrNotConfigured (fail closed); in
	// development mode it returns OutcomeNotConfigured and the caller
	// proceeds without attestation.
	Verify(ctx context.Context, token, deviceID string) (Verification, error)
}
