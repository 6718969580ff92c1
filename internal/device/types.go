package device

import "time"

// Kind classifies a device by its role in the fleet.
type Kind string

// Device kinds.
const (
	KindLock     Kind = "lock"
	KindDoorbell Kind = "doorbell"
	KindKeypad   Kind = "keypad"
)

// LockStatus is the reported bolt state of a lock.
type LockStatus string

// Lock statuses as reported by the backend and the push channel.
const (
	LockStatusLocked   LockStatus = "locked"
	LockStatusUnlocked LockStatus = "unlocked"
	LockStatusJammed   LockStatus = "jammed"
	LockStatusUnknown  LockStatus = "unknown"
)

// DoorState is the reported open/closed state of the door a lock is mounted on.
type DoorState string

// Door states. Locks without a door sense report DoorStateUnknown.
const (
	DoorStateOpen    DoorState = "open"
	DoorStateClosed  DoorState = "closed"
	DoorStateUnknown DoorState = "unknown"
)

// DoorbellStatusOnline is the backend's health string for a reachable camera.
// Other observed values include "doorbell_call_status_offline" and "standby".
const DoorbellStatusOnline = "doorbell_call_status_online"

// Device is the immutable identity record for a fleet member.
// It is created during hydration from the bulk listing call and never mutated;
// inoperative filtering may drop it from the registry entirely.
type Device struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HouseID string `json:"house_id"`
	Kind    Kind   `json:"kind"`
}

// Detail is a full state snapshot for one device. Lock, doorbell, and keypad
// details all live in the same registry mapping keyed by device id; snapshots
// are replaced wholesale on each successful refresh.
type Detail interface {
	// DeviceID returns the id of the device this snapshot describes.
	DeviceID() string

	// DeviceName returns the human-readable name as the backend stores it.
	DeviceName() string

	// HouseID returns the id of the house the device belongs to.
	HouseID() string
}

// Bridge describes the mains-powered gateway that relays commands to a lock.
// A lock without a bridge cannot be operated remotely at all; a lock whose
// bridge is merely offline may recover and is reported via the push channel.
type Bridge struct {
	ID          string `json:"id"`
	Online      bool   `json:"online"`
	HyperBridge bool   `json:"hyper_bridge"`
}

// LockDetail is the mutable state snapshot of a lock.
type LockDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	House    string `json:"house_id"`
	Model    string `json:"model,omitempty"`
	Serial   string `json:"serial_number,omitempty"`
	Firmware string `json:"firmware_version,omitempty"`

	// BatteryLevel is the remaining battery percentage (0-100).
	BatteryLevel int `json:"battery_level"`

	// Bridge is nil when no gateway has ever been paired with the lock.
	Bridge *Bridge `json:"bridge,omitempty"`

	// Live fields. The poll API may serve these from a stale cache; the push
	// channel delivers fresher values, so a refresh preserves them while the
	// push connection is up.
	LockStatus        LockStatus `json:"lock_status"`
	LockStatusUpdated time.Time  `json:"lock_status_updated"`
	DoorState         DoorState  `json:"door_state"`
	DoorStateUpdated  time.Time  `json:"door_state_updated"`

	// Keypad is the associated keypad sub-device, if one is installed.
	Keypad *KeypadDetail `json:"keypad,omitempty"`

	// OfflineKey and OfflineSlot carry the short-range-radio credential used
	// by companion integrations for local control. Empty when the account
	// has no offline key provisioned for this lock.
	OfflineKey  string `json:"offline_key,omitempty"`
	OfflineSlot int    `json:"offline_slot,omitempty"`

	// MACAddress is the radio address advertised for local discovery.
	MACAddress string `json:"mac_address,omitempty"`
}

// Clone returns a copy safe to mutate without disturbing readers of the
// registry's stored snapshot. The bridge is copied; the keypad is shared,
// nothing mutates it after hydration.
func (d *LockDetail) Clone() *LockDetail {
	clone := *d
	if d.Bridge != nil {
		bridge := *d.Bridge
		clone.Bridge = &bridge
	}
	return &clone
}

// DeviceID implements Detail.
func (d *LockDetail) DeviceID() string { return d.ID }

// DeviceName implements Detail.
func (d *LockDetail) DeviceName() string { return d.Name }

// HouseID implements Detail.
func (d *LockDetail) HouseID() string { return d.House }

// DoorbellDetail is the mutable state snapshot of a doorbell camera.
type DoorbellDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	House    string `json:"house_id"`
	Model    string `json:"model,omitempty"`
	Serial   string `json:"serial_number,omitempty"`
	Firmware string `json:"firmware_version,omitempty"`

	// Status is the backend's own health string for the camera.
	Status string `json:"status"`

	// BatteryLevel is 0 for wired doorbells.
	BatteryLevel int `json:"battery_level"`

	// ImageURL points at the latest still captured by the camera.
	ImageURL string `json:"image_url,omitempty"`

	// HasSubscription reports whether cloud recording is active.
	HasSubscription bool `json:"has_subscription"`
}

// Clone returns a copy safe to mutate without disturbing readers of the
// registry's stored snapshot.
func (d *DoorbellDetail) Clone() *DoorbellDetail {
	clone := *d
	return &clone
}

// DeviceID implements Detail.
func (d *DoorbellDetail) DeviceID() string { return d.ID }

// DeviceName implements Detail.
func (d *DoorbellDetail) DeviceName() string { return d.Name }

// HouseID implements Detail.
func (d *DoorbellDetail) HouseID() string { return d.House }

// KeypadDetail is the state snapshot of a keypad. Keypads are always attached
// to a lock and arrive embedded in the lock's detail; the registry stores them
// under their own device id so consumers can address them directly.
type KeypadDetail struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	House        string `json:"house_id"`
	Model        string `json:"model,omitempty"`
	Serial       string `json:"serial_number,omitempty"`
	Firmware     string `json:"firmware_version,omitempty"`
	BatteryLevel int    `json:"battery_level"`
}

// DeviceID implements Detail.
func (d *KeypadDetail) DeviceID() string { return d.ID }

// DeviceName implements Detail.
func (d *KeypadDetail) DeviceName() string { return d.Name }

// HouseID implements Detail.
func (d *KeypadDetail) HouseID() string { return d.House }
