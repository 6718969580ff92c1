package activity

import (
	"time"

	"github.com/nerrad567/keyline-core/internal/device"
)

// Kind categorises an activity by the state it can update.
type Kind string

const (
	// KindLockOperation is a lock or unlock, remote or manual.
	KindLockOperation Kind = "lock_operation"

	// KindDoorOperation is a door open or close detected by the sensor.
	KindDoorOperation Kind = "door_operation"

	// KindDoorbellMotion is motion detected by a doorbell camera.
	KindDoorbellMotion Kind = "doorbell_motion"

	// KindDoorbellDing is a doorbell button press.
	KindDoorbellDing Kind = "doorbell_ding"

	// KindBridgeOnline marks the device's bridge coming online.
	KindBridgeOnline Kind = "bridge_online"

	// KindBridgeOffline marks the device's bridge going offline.
	KindBridgeOffline Kind = "bridge_offline"
)

// Source records how an activity reached the engine.
type Source string

const (
	// SourcePush means the activity arrived over the push channel.
	SourcePush Source = "push"

	// SourcePoll means the activity was fetched from the activity log API.
	SourcePoll Source = "poll"
)

// Activity is a single timestamped event reported against a device.
// Only the fields relevant to the activity's Kind are populated.
type Activity struct {
	// ID is the backend's identifier for this event. May be empty for
	// push-delivered events; the engine assigns a fallback.
	ID string `json:"id"`

	DeviceID string `json:"device_id"`
	HouseID  string `json:"house_id"`
	Kind     Kind   `json:"kind"`
	Source   Source `json:"source"`

	// At is when the event occurred on the device, not when it was received.
	At time.Time `json:"at"`

	// LockStatus is set for lock operations.
	LockStatus device.LockStatus `json:"lock_status,omitempty"`

	// DoorState is set for door operations.
	DoorState device.DoorState `json:"door_state,omitempty"`

	// OperatedBy names the account that issued a remote operation, when known.
	OperatedBy string `json:"operated_by,omitempty"`

	// ImageURL is set for doorbell motion events that captured a snapshot.
	ImageURL string `json:"image_url,omitempty"`
}

// class maps a Kind to the state slot it competes for. Activities of the
// same class on the same device supersede each other by timestamp;
// activities of different classes never do.
func (k Kind) class() string {
	switch k {
	case KindLockOperation:
		return "lock"
	case KindDoorOperation:
		return "door"
	case KindDoorbellMotion, KindDoorbellDing:
		return "doorbell"
	case KindBridgeOnline, KindBridgeOffline:
		return "bridge"
	default:
		return string(k)
	}
}
