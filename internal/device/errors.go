package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDetailNotFound) {
//	    // handle missing snapshot
//	}
var (
	// ErrDetailNotFound is returned when no detail snapshot exists for a
	// device id. Callers are expected to have validated existence against
	// the device listing first, so hitting this is an internal invariant
	// violation rather than a user-facing condition.
	ErrDetailNotFound = errors.New("device: detail not found")

	// ErrDeviceNotFound is returned when a device id is in neither the lock
	// nor the doorbell collection.
	ErrDeviceNotFound = errors.New("device: not found")
)
