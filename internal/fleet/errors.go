package fleet

import (
	"errors"
	"fmt"
)

// Fleet errors.
var (
	// ErrNotStarted indicates an operation that needs a completed Setup.
	ErrNotStarted = errors.New("fleet: not started")

	// ErrAlreadyStarted indicates Setup was called twice.
	ErrAlreadyStarted = errors.New("fleet: already started")

	// ErrUnknownDevice indicates a device id the registry does not hold.
	ErrUnknownDevice = errors.New("fleet: unknown device")

	// ErrNoBridge indicates a remote operation against a lock that has no
	// bridge paired. Such locks are pruned during setup; hitting this at
	// runtime means the caller bypassed the registry.
	ErrNoBridge = errors.New("fleet: lock has no bridge")
)

// OperationError wraps a failed device operation with enough identity for a
// useful message. The device name falls back to the raw id when the registry
// holds no detail for it.
type OperationError struct {
	// Op is the operation that failed (lock, unlock, status, refresh).
	Op string

	// DeviceID is the target device.
	DeviceID string

	// DeviceName is the display name, empty when unknown.
	DeviceName string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("fleet: %s failed for %s: %v", e.Op, e.subject(), e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) subject() string {
	if e.DeviceName != "" {
		return e.DeviceName
	}
	return "DeviceID: " + e.DeviceID
}
