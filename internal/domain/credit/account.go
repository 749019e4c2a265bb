package credit

import (
	"fmt"
	"strings"
	"time"
)

// DefaultFreeLimit is the lifetime free analysis allowance granted to every
// device record. The allowance does not reset periodically.
const DefaultFreeLimit = 3

// MaxDeviceIDLength bounds the opaque client-generated device identifier.
const MaxDeviceIDLength = 128

// DeviceAccount is the aggregate root for a device's credit balance.
// It owns the free allowance, the purchased credit pool, the count of
// outstanding reservations, and the lifetime usage counter.
type DeviceAccount struct {
	id            uint
	deviceID      string
	freeLimit     int
	freeUsed      int
	paidCredits   int
	reserved      int
	totalAnalyses int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewDeviceAccount creates a fresh account for a device with the default
// zeroed counters. Accounts are created lazily on first contact.
func NewDeviceAccount(deviceID string, freeLimit int) (*DeviceAccount, error) {
	if err := ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if freeLimit < 0 {
		return nil, fmt.Errorf("free limit cannot be negative: %d", freeLimit)
	}

	now := time.Now().UTC()
	return &DeviceAccount{
		deviceID:  deviceID,
		freeLimit: freeLimit,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructDeviceAccount rebuilds an account from persistence.
func ReconstructDeviceAccount(
	id uint,
	deviceID string,
	freeLimit, freeUsed, paidCredits, reserved, totalAnalyses int,
	createdAt, updatedAt time.Time,
) (*DeviceAccount, error) {
	if id == 0 {
		return nil, fmt.Errorf("account ID cannot be zero")
	}
	if err := ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}

	a := &DeviceAccount{
		id:            id,
		deviceID:      deviceID,
		freeLimit:     freeLimit,
		freeUsed:      freeUsed,
		paidCredits:   paidCredits,
		reserved:      reserved,
		totalAnalyses: totalAnalyses,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ValidateDeviceID checks the opaque device identifier for structural sanity.
// Identity is taken as given; no cross-device reconciliation is attempted.
func ValidateDeviceID(deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return ErrDeviceIDRequired
	}
	if len(deviceID) > MaxDeviceIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidDeviceID, MaxDeviceIDLength)
	}
	return nil
}

func (a *DeviceAccount) ID() uint              { return a.id }
func (a *DeviceAccount) DeviceID() string      { return a.deviceID }
func (a *DeviceAccount) FreeLimit() int        { return a.freeLimit }
func (a *DeviceAccount) FreeUsed() int         { return a.freeUsed }
func (a *DeviceAccount) PaidCredits() int      { return a.paidCredits }
func (a *DeviceAccount) Reserved() int         { return a.reserved }
func (a *DeviceAccount) TotalAnalyses() int    { return a.totalAnalyses }
func (a *DeviceAccount) CreatedAt() time.Time  { return a.createdAt }
func (a *DeviceAccount) UpdatedAt() time.Time  { return a.updatedAt }

// FreeRemaining returns the unused portion of the free allowance.
func (a *DeviceAccount) FreeRemaining() int {
	return a.freeLimit - a.freeUsed
}

// TotalCredits returns the settled balance: free remainder plus paid credits.
func (a *DeviceAccount) TotalCredits() int {
	return a.FreeRemaining() + a.paidCredits
}

// Available returns the balance usable for a new reservation, i.e. the
// settled balance minus units already held by pending reservations.
func (a *DeviceAccount) Available() int {
	return a.TotalCredits() - a.reserved
}

// Balance returns a snapshot suitable for responses.
func (a *DeviceAccount) Balance() Balance {
	return Balance{
		FreeLimit:     a.freeLimit,
		FreeUsed:      a.freeUsed,
		PaidCredits:   a.paidCredits,
		TotalAnalyses: a.totalAnalyses,
	}
}

// Validate enforces the ledger invariants.
func (a *DeviceAccount) Validate() error {
	if a.freeUsed < 0 || a.paidCredits < 0 || a.reserved < 0 || a.totalAnalyses < 0 {
		return fmt.Errorf("negative counter on account %q", a.deviceID)
	}
	if a.freeUsed > a.freeLimit {
		return fmt.Errorf("free used %d exceeds free limit %d on account %q", a.freeUsed, a.freeLimit, a.deviceID)
	}
	if a.TotalCredits() < 0 {
		return fmt.Errorf("negative total credits on account %q", a.deviceID)
	}
	return nil
}

// Balance is a read snapshot of an account's credit state.
type Balance struct {
	FreeLimit     int
	FreeUsed      int
	PaidCredits   int
	TotalAnalyses int

	// Degraded marks a fallback default returned while storage was
	// unavailable. It must never be conflated with a verified balance.
	Degraded bool
}

// FreeRemaining returns the unused portion of the free allowance.
func (b Balance) FreeRemaining() int {
	return b.FreeLimit - b.FreeUsed
}

// TotalCredits returns the settled balance.
func (b Balance) TotalCredits() int {
	return b.FreeRemaining() + b.PaidCredits
}

// DegradedBalance is the read-only default served when the account store is
// unreachable, so the client stays usable. Callers must log its use.
func DegradedBalance(freeLimit int) Balance {
	return Balance{
		FreeLimit: freeLimit,
		Degraded:  true,
	}
}
