package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/keyline-core/internal/device"
)

// knownKinds is the set of kinds the engine tracks. Payloads reporting
// anything else are rejected rather than silently stored.
var knownKinds = map[Kind]struct{}{
	KindLockOperation:  {},
	KindDoorOperation:  {},
	KindDoorbellMotion: {},
	KindDoorbellDing:   {},
	KindBridgeOnline:   {},
	KindBridgeOffline:  {},
}

// Decode turns a raw push payload into an Activity.
//
// The device id and event time come from the push envelope, not the payload;
// the payload carries only the kind and its state fields. Activities without
// a backend id get a generated one so the repository can store them.
func Decode(deviceID string, at time.Time, payload []byte) (Activity, error) {
	var act Activity
	if err := json.Unmarshal(payload, &act); err != nil {
		return Activity{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if _, ok := knownKinds[act.Kind]; !ok {
		return Activity{}, fmt.Errorf("%w: %q", ErrUnknownKind, act.Kind)
	}

	act.DeviceID = deviceID
	act.At = at
	act.Source = SourcePush
	if act.ID == "" {
		act.ID = uuid.NewString()
	}

	return act, nil
}

// ApplyToDetail folds an accepted activity into a device detail snapshot.
// Returns true when the snapshot changed, or for stateless events (dings)
// that consumers still need to hear about.
//
// Lock state fields only move forward in time: an activity older than the
// snapshot's own timestamp for that field is ignored.
func ApplyToDetail(detail device.Detail, act Activity) bool {
	switch d := detail.(type) {
	case *device.LockDetail:
		return applyToLock(d, act)
	case *device.DoorbellDetail:
		return applyToDoorbell(d, act)
	default:
		return false
	}
}

func applyToLock(d *device.LockDetail, act Activity) bool {
	switch act.Kind {
	case KindLockOperation:
		if act.LockStatus == "" || !act.At.After(d.LockStatusUpdated) {
			return false
		}
		d.LockStatus = act.LockStatus
		d.LockStatusUpdated = act.At
		return true

	case KindDoorOperation:
		if act.DoorState == "" || !act.At.After(d.DoorStateUpdated) {
			return false
		}
		d.DoorState = act.DoorState
		d.DoorStateUpdated = act.At
		return true

	case KindBridgeOnline, KindBridgeOffline:
		if d.Bridge == nil {
			return false
		}
		online := act.Kind == KindBridgeOnline
		if d.Bridge.Online == online {
			return false
		}
		d.Bridge.Online = online
		return true

	default:
		return false
	}
}

func applyToDoorbell(d *device.DoorbellDetail, act Activity) bool {
	switch act.Kind {
	case KindDoorbellMotion:
		if act.ImageURL == "" || act.ImageURL == d.ImageURL {
			return false
		}
		d.ImageURL = act.ImageURL
		return true

	case KindDoorbellDing:
		// Dings carry no state; the snapshot is unchanged but consumers
		// still want the event itself.
		return true

	default:
		return false
	}
}
