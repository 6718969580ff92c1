package fleet

import (
	"context"

	"github.com/nerrad567/keyline-core/internal/activity"
	"github.com/nerrad567/keyline-core/internal/device"
)

// CommandBackend is the slice of the backend client the dispatcher needs.
type CommandBackend interface {
	LockReturnActivities(ctx context.Context, lockID string) ([]activity.Activity, error)
	UnlockReturnActivities(ctx context.Context, lockID string) ([]activity.Activity, error)
	LockAsync(ctx context.Context, lockID string, hyperBridge bool) error
	UnlockAsync(ctx context.Context, lockID string, hyperBridge bool) error
	StatusAsync(ctx context.Context, lockID string, hyperBridge bool) error
}

// ActivitySink receives the activities a synchronous operation returned.
// Implemented by activity.Stream.
type ActivitySink interface {
	Accept(act activity.Activity) bool
}

// Dispatcher issues lock operations against the backend.
//
// Two flavours exist. The synchronous methods (Lock, Unlock) block until the
// backend confirms and feed the returned activities through the sink, so the
// registry reflects the outcome as soon as the call returns. The async
// methods fire the command and return; confirmation arrives over the push
// channel. Commands are never retried.
type Dispatcher struct {
	backend  CommandBackend
	registry *device.Registry
	sink     ActivitySink
	logger   Logger
}

// NewDispatcher creates a dispatcher. sink may be nil, in which case the
// activities returned by synchronous operations are dropped.
func NewDispatcher(backend CommandBackend, registry *device.Registry, sink ActivitySink, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}

	return &Dispatcher{
		backend:  backend,
		registry: registry,
		sink:     sink,
		logger:   logger,
	}
}

// Lock locks the device and waits for confirmation.
func (d *Dispatcher) Lock(ctx context.Context, lockID string) error {
	return d.operate(ctx, "lock", lockID, d.backend.LockReturnActivities)
}

// Unlock unlocks the device and waits for confirmation.
func (d *Dispatcher) Unlock(ctx context.Context, lockID string) error {
	return d.operate(ctx, "unlock", lockID, d.backend.UnlockReturnActivities)
}

func (d *Dispatcher) operate(ctx context.Context, op, lockID string, call func(context.Context, string) ([]activity.Activity, error)) error {
	if !d.registry.IsLock(lockID) {
		return ErrUnknownDevice
	}

	activities, err := call(ctx, lockID)
	if err != nil {
		return d.wrap(op, lockID, err)
	}

	accepted := 0
	if d.sink != nil {
		for _, act := range activities {
			if d.sink.Accept(act) {
				accepted++
			}
		}
	}

	d.logger.Debug("operation confirmed",
		"device_id", lockID,
		"op", op,
		"activities", len(activities),
		"accepted", accepted,
	)
	return nil
}

// LockAsync fires a lock command without waiting for the outcome.
func (d *Dispatcher) LockAsync(ctx context.Context, lockID string) error {
	return d.operateAsync(ctx, "lock", lockID, d.backend.LockAsync)
}

// UnlockAsync fires an unlock command without waiting for the outcome.
func (d *Dispatcher) UnlockAsync(ctx context.Context, lockID string) error {
	return d.operateAsync(ctx, "unlock", lockID, d.backend.UnlockAsync)
}

// StatusAsync asks the lock to report fresh status over the push channel.
func (d *Dispatcher) StatusAsync(ctx context.Context, lockID string) error {
	return d.operateAsync(ctx, "status", lockID, d.backend.StatusAsync)
}

func (d *Dispatcher) operateAsync(ctx context.Context, op, lockID string, call func(context.Context, string, bool) error) error {
	hyper, err := d.hyperBridge(lockID)
	if err != nil {
		return err
	}

	if err := call(ctx, lockID, hyper); err != nil {
		return d.wrap(op, lockID, err)
	}
	return nil
}

// hyperBridge reports whether the lock's bridge supports the low-latency
// command path. Async operations need a bridge at all.
func (d *Dispatcher) hyperBridge(lockID string) (bool, error) {
	if !d.registry.IsLock(lockID) {
		return false, ErrUnknownDevice
	}

	detail, err := d.registry.Detail(lockID)
	if err != nil {
		return false, ErrNoBridge
	}

	lock, ok := detail.(*device.LockDetail)
	if !ok || lock.Bridge == nil {
		return false, ErrNoBridge
	}
	return lock.Bridge.HyperBridge, nil
}

func (d *Dispatcher) wrap(op, lockID string, err error) error {
	return &OperationError{
		Op:         op,
		DeviceID:   lockID,
		DeviceName: d.registry.DeviceName(lockID),
		Err:        err,
	}
}
