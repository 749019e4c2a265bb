package purchase

import (
	"context"
	"time"
)

// VerifiedTransaction is the decoded, signature-checked content of a signed
// platform transaction.
type VerifiedTransaction struct {
	TransactionID         string
	OriginalTransactionID string
	ProductID             string
	BundleID              string
	Environment           string
	PurchaseDate          time.Time
}

// Verifier checks the cryptographic envelope of a signed platform transaction
// and returns its claims. Implementations must reject any payload whose
// signature does not chain to the platform root.
type Verifier interface {
	Verify(ctx context.Context, signedTransaction string) (*VerifiedTransaction, error)
}
