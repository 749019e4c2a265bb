package credit

import "errors"

var (
	// ErrDeviceIDRequired is returned when the device identifier is missing
	ErrDeviceIDRequired = errors.New("device ID is required")

	// ErrInvalidDeviceID is returned when the device identifier is malformed
	ErrInvalidDeviceID = errors.New("invalid device ID")

	// ErrAccountNotFound is returned when a device account does not exist
	ErrAccountNotFound = errors.New("device account not found")

	// ErrInsufficientCredit is returned when no credit unit is available to reserve
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrReservationNotFound is returned when a reservation handle is unknown
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrStoreUnavailable is returned when the durable account store cannot be reached
	ErrStoreUnavailable = errors.New("account store unavailable")
)
