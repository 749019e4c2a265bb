package credit

import (
	"context"
	"time"
)

// Repository is the account store contract. It is the only mutator of credit
// balances; every balance-affecting operation is atomic at the storage level
// so correctness holds across concurrent service instances.
type Repository interface {
	// GetOrCreate returns the account for a device, creating it with default
	// counters if absent.
	GetOrCreate(ctx context.Context, deviceID string) (*DeviceAccount, error)

	// AuthorizeAndReserve atomically checks that one credit unit is available
	// and marks it reserved in the same storage operation as the check. It
	// returns ErrInsufficientCredit when concurrent holds plus settled usage
	// exhaust the balance. Creates the account lazily if absent.
	AuthorizeAndReserve(ctx context.Context, deviceID string, holdFor time.Duration) (*Reservation, error)

	// Settle resolves a reservation. Consumed commits the decrement (free
	// before paid) and bumps the lifetime analysis counter; Released reverts
	// the hold with no balance change. Settling an already-settled
	// reservation is a no-op.
	Settle(ctx context.Context, reservationID string, outcome SettleOutcome) error

	// ReleaseExpired releases pending reservations whose hold deadline has
	// passed and returns how many were released. Used by the background
	// reconciliation job.
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)

	// ApplyPurchase inserts the purchase transaction row and increments the
	// paid credit pool as one atomic unit. A transaction ID seen before
	// returns ErrAlreadyApplied from the purchase domain and leaves the
	// balance untouched.
	ApplyPurchase(ctx context.Context, deviceID, transactionID, originalTransactionID, productID string, credits int, encryptedReceipt []byte) error
}
