// Package device provides the in-memory device registry and data model for
// Keyline Core.
//
// The registry is the single authoritative view of the fleet between backend
// polls: the lock and doorbell identity collections plus one shared detail
// map keyed by device id. Details are replaced wholesale on each successful
// refresh; keypad sub-devices are stored under their own id in the same map.
//
// # Key Types
//
//   - Device: immutable identity record (id, name, house, kind)
//   - Detail: interface over the per-kind snapshot types
//   - LockDetail / DoorbellDetail / KeypadDetail: full state snapshots
//   - LiveState: ephemeral capture of a lock's live fields, used to stop a
//     stale poll response from clobbering fresher push-delivered values
//
// # Usage
//
//	registry := device.NewRegistry()
//	registry.AddDevice(device.Device{ID: "lock-1", Kind: device.KindLock})
//	registry.UpsertDetail(&device.LockDetail{ID: "lock-1", LockStatus: device.LockStatusLocked})
//
//	detail, err := registry.Detail("lock-1")
//	if err != nil {
//	    // no snapshot stored — internal invariant violation after hydration
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use. The mutex guards map operations
// only; network fetches happen outside it, so one device's slow refresh never
// blocks another's update.
package device
