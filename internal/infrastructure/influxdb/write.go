package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/keyline-core/internal/device"
)

// boltPositions maps lock statuses onto a numeric series so transitions can
// be graphed. Jammed sits apart from the locked/unlocked axis.
var boltPositions = map[device.LockStatus]float64{
	device.LockStatusUnlocked: 0,
	device.LockStatusLocked:   1,
	device.LockStatusJammed:   -1,
	device.LockStatusUnknown:  -2,
}

// WriteLockState records a lock's full snapshot as one point.
//
// Parameters:
//   - detail: Current lock snapshot to record
func (c *Client) WriteLockState(detail *device.LockDetail) {
	if !c.IsConnected() || detail == nil {
		return
	}

	fields := map[string]interface{}{
		"bolt_position": boltPositions[detail.LockStatus],
		"battery_level": float64(detail.BatteryLevel),
		"door_open":     detail.DoorState == device.DoorStateOpen,
	}
	if detail.Bridge != nil {
		fields["bridge_online"] = detail.Bridge.Online
	}

	point := write.NewPoint(
		"lock_state",
		map[string]string{
			"device_id": detail.ID,
			"house_id":  detail.House,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDoorbellState records a doorbell camera's snapshot.
//
// Parameters:
//   - detail: Current doorbell snapshot to record
func (c *Client) WriteDoorbellState(detail *device.DoorbellDetail) {
	if !c.IsConnected() || detail == nil {
		return
	}

	point := write.NewPoint(
		"doorbell_state",
		map[string]string{
			"device_id": detail.ID,
			"house_id":  detail.House,
		},
		map[string]interface{}{
			"battery_level": float64(detail.BatteryLevel),
			"online":        detail.Status == device.DoorbellStatusOnline,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBattery records a battery reading for any device, including keypads
// that have no full state measurement of their own.
func (c *Client) WriteBattery(deviceID string, level int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"battery",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"level": float64(level)},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordDetail writes the appropriate measurement for whatever snapshot type
// the registry holds. Wired into the sync engine's update notification.
func (c *Client) RecordDetail(detail device.Detail) {
	switch d := detail.(type) {
	case *device.LockDetail:
		c.WriteLockState(d)
	case *device.DoorbellDetail:
		c.WriteDoorbellState(d)
	case *device.KeypadDetail:
		c.WriteBattery(d.ID, d.BatteryLevel)
	}
}
