package models

import "time"

// PurchaseTransactionModel rows are append-only. EncryptedReceipt holds the
// AEAD ciphertext of the raw signed payload; plaintext is never stored.
type PurchaseTransactionModel struct {
	ID                    uint      `gorm:"primaryKey"`
	TransactionID         string    `gorm:"uniqueIndex;size:128;not null"`
	OriginalTransactionID string    `gorm:"index;size:128"`
	ProductID             string    `gorm:"size:128;not null"`
	DeviceID              string    `gorm:"index;size:128;not null"`
	CreditsGranted        int       `gorm:"not null"`
	EncryptedReceipt      []byte    `gorm:"type:blob;not null"`
	AppliedAt             time.Time `gorm:"not null"`
	CreatedAt             time.Time
}

func (PurchaseTransactionModel) TableName() string {
	return "purchase_transactions"
}
