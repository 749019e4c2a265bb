package credit

import (
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a credit hold.
type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "pending"
	ReservationStatusConsumed ReservationStatus = "consumed"
	ReservationStatusReleased ReservationStatus = "released"
)

// IsValid checks if the reservation status is a known value.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConsumed, ReservationStatusReleased:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transition.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusConsumed || s == ReservationStatusReleased
}

// SettleOutcome is the caller's verdict on a reservation.
type SettleOutcome string

const (
	// OutcomeConsumed commits the decrement: the analysis succeeded.
	OutcomeConsumed SettleOutcome = "consumed"
	// OutcomeReleased reverts the hold: the analysis failed or was abandoned.
	OutcomeReleased SettleOutcome = "released"
)

// IsValid checks if the settle outcome is a known value.
func (o SettleOutcome) IsValid() bool {
	return o == OutcomeConsumed || o == OutcomeReleased
}

// ToStatus maps a settle outcome to the terminal reservation status.
func (o SettleOutcome) ToStatus() ReservationStatus {
	if o == OutcomeConsumed {
		return ReservationStatusConsumed
	}
	return ReservationStatusReleased
}

// Reservation is a provisional hold on exactly one credit unit. It is created
// by AuthorizeAndReserve and resolved by exactly one Settle call; holds left
// pending past ExpiresAt are released by the reconciliation job.
type Reservation struct {
	id        string
	deviceID  string
	status    ReservationStatus
	createdAt time.Time
	expiresAt time.Time
}

// NewReservation creates a pending hold for one credit unit.
func NewReservation(reservationID, deviceID string, holdFor time.Duration) (*Reservation, error) {
	if reservationID == "" {
		return nil, fmt.Errorf("reservation ID is required")
	}
	if err := ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if holdFor <= 0 {
		return nil, fmt.Errorf("hold duration must be positive: %s", holdFor)
	}

	now := time.Now().UTC()
	return &Reservation{
		id:        reservationID,
		deviceID:  deviceID,
		status:    ReservationStatusPending,
		createdAt: now,
		expiresAt: now.Add(holdFor),
	}, nil
}

// ReconstructReservation rebuilds a reservation from persistence.
func ReconstructReservation(
	id, deviceID string,
	status ReservationStatus,
	createdAt, expiresAt time.Time,
) (*Reservation, error) {
	if id == "" {
		return nil, fmt.Errorf("reservation ID is required")
	}
	if err := ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid reservation status: %s", status)
	}

	return &Reservation{
		id:        id,
		deviceID:  deviceID,
		status:    status,
		createdAt: createdAt,
		expiresAt: expiresAt,
	}, nil
}

func (r *Reservation) ID() string                { return r.id }
func (r *Reservation) DeviceID() string          { return r.deviceID }
func (r *Reservation) Status() ReservationStatus { return r.status }
func (r *Reservation) CreatedAt() time.Time      { return r.createdAt }
func (r *Reservation) ExpiresAt() time.Time      { return r.expiresAt }

// IsExpired reports whether the hold has passed its release deadline.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.status == ReservationStatusPending && now.After(r.expiresAt)
}
