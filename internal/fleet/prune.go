package fleet

import "github.com/nerrad567/keyline-core/internal/device"

// PruneInoperative drops devices that cannot be operated or observed from
// the registry after initial hydration.
//
// Doorbells without a detail snapshot never answered the detail call and
// are removed. Locks split three ways:
//   - no detail snapshot: removed, the backend does not know the lock
//   - detail but no bridge ever paired: removed entirely, the lock is
//     unreachable remotely and will stay that way
//   - bridge paired but currently offline: kept, the bridge coming back
//     is reported over the push channel
func PruneInoperative(registry *device.Registry, logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}

	for _, d := range registry.Doorbells() {
		if _, err := registry.Detail(d.ID); err != nil {
			logger.Info("removing inoperative doorbell",
				"device_id", d.ID,
				"device_name", d.Name,
				"reason", "no detail",
			)
			registry.RemoveDevice(d.ID)
		}
	}

	for _, d := range registry.Locks() {
		detail, err := registry.Detail(d.ID)
		if err != nil {
			logger.Info("removing inoperative lock",
				"device_id", d.ID,
				"device_name", d.Name,
				"reason", "no detail",
			)
			registry.RemoveDevice(d.ID)
			continue
		}

		lock, ok := detail.(*device.LockDetail)
		if !ok {
			continue
		}

		if lock.Bridge == nil {
			logger.Info("removing inoperative lock",
				"device_id", d.ID,
				"device_name", d.Name,
				"reason", "no bridge paired",
			)
			registry.RemoveDevice(d.ID)
			continue
		}

		if !lock.Bridge.Online {
			logger.Warn("lock bridge is offline, keeping device",
				"device_id", d.ID,
				"device_name", d.Name,
			)
		}
	}
}
