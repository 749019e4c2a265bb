package credit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceAccount(t *testing.T) {
	account, err := NewDeviceAccount("device-abc", DefaultFreeLimit)
	require.NoError(t, err)

	assert.Equal(t, "device-abc", account.DeviceID())
	assert.Equal(t, DefaultFreeLimit, account.FreeLimit())
	assert.Equal(t, 0, account.FreeUsed())
	assert.Equal(t, 0, account.PaidCredits())
	assert.Equal(t, DefaultFreeLimit, account.FreeRemaining())
	assert.Equal(t, DefaultFreeLimit, account.TotalCredits())
	assert.Equal(t, DefaultFreeLimit, account.Available())
}

func TestNewDeviceAccount_InvalidDeviceID(t *testing.T) {
	_, err := NewDeviceAccount("", DefaultFreeLimit)
	assert.ErrorIs(t, err, ErrDeviceIDRequired)

	_, err = NewDeviceAccount("   ", DefaultFreeLimit)
	assert.ErrorIs(t, err, ErrDeviceIDRequired)

	long := make([]byte, MaxDeviceIDLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewDeviceAccount(string(long), DefaultFreeLimit)
	assert.ErrorIs(t, err, ErrInvalidDeviceID)
}

func TestNewDeviceAccount_NegativeFreeLimit(t *testing.T) {
	_, err := NewDeviceAccount("device-abc", -1)
	assert.Error(t, err)
}

func TestDeviceAccount_Available(t *testing.T) {
	now := time.Now().UTC()

	account, err := ReconstructDeviceAccount(1, "device-abc", 3, 2, 5, 2, 7, now, now)
	require.NoError(t, err)

	assert.Equal(t, 1, account.FreeRemaining())
	assert.Equal(t, 6, account.TotalCredits())
	assert.Equal(t, 4, account.Available())
}

func TestReconstructDeviceAccount_InvariantViolations(t *testing.T) {
	now := time.Now().UTC()

	_, err := ReconstructDeviceAccount(1, "device-abc", 3, 4, 0, 0, 0, now, now)
	assert.Error(t, err, "free used beyond free limit must be rejected")

	_, err = ReconstructDeviceAccount(1, "device-abc", 3, 0, -1, 0, 0, now, now)
	assert.Error(t, err, "negative paid credits must be rejected")

	_, err = ReconstructDeviceAccount(0, "device-abc", 3, 0, 0, 0, 0, now, now)
	assert.Error(t, err, "zero ID must be rejected")
}

func TestDegradedBalance(t *testing.T) {
	balance := DegradedBalance(3)

	assert.True(t, balance.Degraded)
	assert.Equal(t, 3, balance.FreeRemaining())
	assert.Equal(t, 3, balance.TotalCredits())
	assert.Equal(t, 0, balance.PaidCredits)
}

func TestNewReservation(t *testing.T) {
	r, err := NewReservation("rsv_123", "device-abc", 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, ReservationStatusPending, r.Status())
	assert.False(t, r.IsExpired(time.Now().UTC()))
	assert.True(t, r.IsExpired(time.Now().UTC().Add(6*time.Minute)))
}

func TestNewReservation_Invalid(t *testing.T) {
	_, err := NewReservation("", "device-abc", 5*time.Minute)
	assert.Error(t, err)

	_, err = NewReservation("rsv_123", "device-abc", 0)
	assert.Error(t, err)
}

func TestReconstructReservation(t *testing.T) {
	created := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	expires := created.Add(5 * time.Minute)

	r, err := ReconstructReservation("rsv_123", "device-abc", ReservationStatusConsumed, created, expires)
	require.NoError(t, err)
	assert.Equal(t, "rsv_123", r.ID())
	assert.Equal(t, "device-abc", r.DeviceID())
	assert.Equal(t, ReservationStatusConsumed, r.Status())
	assert.Equal(t, expires, r.ExpiresAt())

	_, err = ReconstructReservation("", "device-abc", ReservationStatusPending, created, expires)
	assert.Error(t, err)

	_, err = ReconstructReservation("rsv_123", "device-abc", ReservationStatus("bogus"), created, expires)
	assert.Error(t, err)
}

func TestSettleOutcome_ToStatus(t *testing.T) {
	assert.Equal(t, ReservationStatusConsumed, OutcomeConsumed.ToStatus())
	assert.Equal(t, ReservationStatusReleased, OutcomeReleased.ToStatus())
	assert.True(t, OutcomeConsumed.IsValid())
	assert.False(t, SettleOutcome("bogus").IsValid())
}

func TestReservationStatus_IsTerminal(t *testing.T) {
	assert.False(t, ReservationStatusPending.IsTerminal())
	assert.True(t, ReservationStatusConsumed.IsTerminal())
	assert.True(t, ReservationStatusReleased.IsTerminal())
}
