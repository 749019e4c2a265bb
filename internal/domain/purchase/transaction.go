package purchase

import (
	"fmt"
	"time"
)

// Transaction is one applied platform purchase. Rows are append-only: a
// transaction is written on successful verification and never mutated, giving
// the ledger its audit trail. The raw signed payload is stored encrypted only.
type Transaction struct {
	transactionID         string
	originalTransactionID string
	productID             string
	deviceID              string
	creditsGranted        int
	encryptedReceipt      []byte
	appliedAt             time.Time
}

// NewTransaction creates a ledger entry for a verified purchase.
func NewTransaction(
	transactionID, originalTransactionID, productID, deviceID string,
	creditsGranted int,
	encryptedReceipt []byte,
) (*Transaction, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}
	if productID == "" {
		return nil, fmt.Errorf("product ID is required")
	}
	if deviceID == "" {
		return nil, fmt.Errorf("device ID is required")
	}
	if creditsGranted <= 0 {
		return nil, fmt.Errorf("credits granted must be positive: %d", creditsGranted)
	}
	if len(encryptedReceipt) == 0 {
		return nil, fmt.Errorf("encrypted receipt is required")
	}

	return &Transaction{
		transactionID:         transactionID,
		originalTransactionID: originalTransactionID,
		productID:             productID,
		deviceID:              deviceID,
		creditsGranted:        creditsGranted,
		encryptedReceipt:      encryptedReceipt,
		appliedAt:             time.Now().UTC(),
	}, nil
}

func (t *Transaction) TransactionID() string         { return t.transactionID }
func (t *Transaction) OriginalTransactionID() string { return t.originalTransactionID }
func (t *Transaction) ProductID() string             { return t.productID }
func (t *Transaction) DeviceID() string              { return t.deviceID }
func (t *Transaction) CreditsGranted() int           { return t.creditsGranted }
func (t *Transaction) EncryptedReceipt() []byte      { return t.encryptedReceipt }
func (t *Transaction) AppliedAt() time.Time          { return t.appliedAt }
