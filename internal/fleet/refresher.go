package fleet

import (
	"context"
	"errors"

	"github.com/nerrad567/keyline-core/internal/device"
	"github.com/nerrad567/keyline-core/internal/discovery"
)

// DetailFetcher is the slice of the backend client the refresher needs.
type DetailFetcher interface {
	GetLockDetail(ctx context.Context, lockID string) (*device.LockDetail, error)
	GetDoorbellDetail(ctx context.Context, doorbellID string) (*device.DoorbellDetail, error)
}

// Logger is the minimal logging interface the fleet needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// UpdateFunc is invoked after a device's snapshot changes so consumers
// (websocket hub, metrics) can react. Must be safe for concurrent use.
type UpdateFunc func(deviceID string)

// Refresher pulls fresh detail snapshots from the backend into the registry.
//
// Refreshes run sequentially: the backend rate-limits aggressively, and one
// in-flight detail call per engine keeps well under the limit. A failed
// device never blocks the rest of the fleet; RefreshAll records the failure
// and moves on.
type Refresher struct {
	registry  *device.Registry
	fetcher   DetailFetcher
	discovery *discovery.Publisher

	// pushConnected reports whether the push channel is live. While it is,
	// refreshes preserve push-delivered live attributes instead of taking
	// the backend's potentially stale cached copies.
	pushConnected func() bool

	onUpdate UpdateFunc
	logger   Logger
}

// NewRefresher creates a refresher. discoveryPub and onUpdate may be nil.
func NewRefresher(registry *device.Registry, fetcher DetailFetcher, pushConnected func() bool, discoveryPub *discovery.Publisher, onUpdate UpdateFunc, logger Logger) *Refresher {
	if pushConnected == nil {
		pushConnected = func() bool { return false }
	}
	if onUpdate == nil {
		onUpdate = func(string) {}
	}
	if logger == nil {
		logger = noopLogger{}
	}

	return &Refresher{
		registry:      registry,
		fetcher:       fetcher,
		discovery:     discoveryPub,
		pushConnected: pushConnected,
		onUpdate:      onUpdate,
		logger:        logger,
	}
}

// RefreshOne fetches and stores a fresh snapshot for a single device.
//
// Returns:
//   - ErrUnknownDevice when the registry does not hold the device
//   - the backend error, wrapped in *OperationError, when the fetch fails
func (r *Refresher) RefreshOne(ctx context.Context, deviceID string) error {
	switch {
	case r.registry.IsLock(deviceID):
		return r.refreshLock(ctx, deviceID)
	case r.registry.IsDoorbell(deviceID):
		return r.refreshDoorbell(ctx, deviceID)
	default:
		return ErrUnknownDevice
	}
}

// RefreshAll refreshes every registered device sequentially.
//
// Per-device failures are logged and skipped so one unreachable lock cannot
// starve the rest of the fleet. Only context cancellation aborts the sweep.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	devices := append(r.registry.Locks(), r.registry.Doorbells()...)

	for _, d := range devices {
		if err := r.RefreshOne(ctx, d.ID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("device refresh failed",
				"device_id", d.ID,
				"device_name", d.Name,
				"error", err,
			)
		}
	}

	return ctx.Err()
}

func (r *Refresher) refreshLock(ctx context.Context, lockID string) error {
	// Capture push-delivered live attributes before the fetch so a stale
	// poll response cannot clobber them.
	var live device.LiveState
	preserve := r.pushConnected()
	if preserve {
		if current, err := r.registry.Detail(lockID); err == nil {
			live = device.CaptureLiveState(current)
		} else {
			preserve = false
		}
	}

	detail, err := r.fetcher.GetLockDetail(ctx, lockID)
	if err != nil {
		return r.operationError("refresh", lockID, err)
	}

	if preserve {
		live.Apply(detail)
	}

	// Keypads ride along inside the lock detail but are addressable
	// devices in their own right.
	if detail.Keypad != nil {
		r.registry.UpsertDetail(detail.Keypad)
	}

	if r.discovery != nil && detail.OfflineKey != "" {
		r.discovery.Publish(discovery.Credential{
			Name:    detail.Name,
			Address: detail.MACAddress,
			Serial:  detail.Serial,
			Key:     detail.OfflineKey,
			Slot:    detail.OfflineSlot,
		})
	}

	r.registry.UpsertDetail(detail)
	r.onUpdate(lockID)

	r.logger.Debug("lock detail refreshed",
		"device_id", lockID,
		"lock_status", detail.LockStatus,
		"preserved_live", preserve,
	)
	return nil
}

func (r *Refresher) refreshDoorbell(ctx context.Context, doorbellID string) error {
	detail, err := r.fetcher.GetDoorbellDetail(ctx, doorbellID)
	if err != nil {
		return r.operationError("refresh", doorbellID, err)
	}

	r.registry.UpsertDetail(detail)
	r.onUpdate(doorbellID)

	r.logger.Debug("doorbell detail refreshed", "device_id", doorbellID)
	return nil
}

// operationError wraps err with the device's identity.
func (r *Refresher) operationError(op, deviceID string, err error) error {
	var alreadyWrapped *OperationError
	if errors.As(err, &alreadyWrapped) {
		return err
	}

	return &OperationError{
		Op:         op,
		DeviceID:   deviceID,
		DeviceName: r.registry.DeviceName(deviceID),
		Err:        err,
	}
}
