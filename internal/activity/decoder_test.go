package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/keyline-core/internal/device"
)

func TestDecode_LockOperation(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"act-1","kind":"lock_operation","lock_status":"locked","operated_by":"user@example.com"}`)

	act, err := Decode("lock-1", at, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if act.DeviceID != "lock-1" {
		t.Errorf("DeviceID = %q, want lock-1", act.DeviceID)
	}
	if !act.At.Equal(at) {
		t.Errorf("At = %v, want envelope time %v", act.At, at)
	}
	if act.Source != SourcePush {
		t.Errorf("Source = %q, want push", act.Source)
	}
	if act.LockStatus != device.LockStatusLocked {
		t.Errorf("LockStatus = %q, want locked", act.LockStatus)
	}
	if act.OperatedBy != "user@example.com" {
		t.Errorf("OperatedBy = %q, want payload value", act.OperatedBy)
	}
}

func TestDecode_AssignsIDWhenMissing(t *testing.T) {
	act, err := Decode("lock-1", time.Now(), []byte(`{"kind":"door_operation","door_state":"open"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if act.ID == "" {
		t.Error("Decode() left ID empty for payload without id")
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode("lock-1", time.Now(), []byte(`{"kind":"thermostat_change"}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Decode() error = %v, want ErrUnknownKind", err)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode("lock-1", time.Now(), []byte("{nope"))
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("Decode() error = %v, want ErrUndecodable", err)
	}
}

func TestApplyToDetail_LockOperation(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	detail := &device.LockDetail{
		ID:                "lock-1",
		LockStatus:        device.LockStatusUnlocked,
		LockStatusUpdated: base,
	}

	changed := ApplyToDetail(detail, Activity{
		Kind:       KindLockOperation,
		LockStatus: device.LockStatusLocked,
		At:         base.Add(time.Minute),
	})

	if !changed {
		t.Fatal("ApplyToDetail() = false for newer lock operation")
	}
	if detail.LockStatus != device.LockStatusLocked {
		t.Errorf("LockStatus = %q, want locked", detail.LockStatus)
	}
	if !detail.LockStatusUpdated.Equal(base.Add(time.Minute)) {
		t.Errorf("LockStatusUpdated = %v, want activity time", detail.LockStatusUpdated)
	}
}

func TestApplyToDetail_IgnoresOlderActivity(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	detail := &device.LockDetail{
		ID:                "lock-1",
		LockStatus:        device.LockStatusLocked,
		LockStatusUpdated: base,
	}

	changed := ApplyToDetail(detail, Activity{
		Kind:       KindLockOperation,
		LockStatus: device.LockStatusUnlocked,
		At:         base.Add(-time.Minute),
	})

	if changed {
		t.Error("ApplyToDetail() = true for activity older than snapshot")
	}
	if detail.LockStatus != device.LockStatusLocked {
		t.Errorf("LockStatus = %q, want unchanged locked", detail.LockStatus)
	}
}

func TestApplyToDetail_DoorOperation(t *testing.T) {
	detail := &device.LockDetail{ID: "lock-1", DoorState: device.DoorStateClosed}

	changed := ApplyToDetail(detail, Activity{
		Kind:      KindDoorOperation,
		DoorState: device.DoorStateOpen,
		At:        time.Now(),
	})

	if !changed || detail.DoorState != device.DoorStateOpen {
		t.Errorf("door state = %q (changed %v), want open", detail.DoorState, changed)
	}
}

func TestApplyToDetail_BridgeTransitions(t *testing.T) {
	detail := &device.LockDetail{
		ID:     "lock-1",
		Bridge: &device.Bridge{ID: "bridge-1", Online: true},
	}

	if changed := ApplyToDetail(detail, Activity{Kind: KindBridgeOffline, At: time.Now()}); !changed {
		t.Error("ApplyToDetail() = false for bridge going offline")
	}
	if detail.Bridge.Online {
		t.Error("bridge still online after offline activity")
	}

	// Same transition again is a no-op.
	if changed := ApplyToDetail(detail, Activity{Kind: KindBridgeOffline, At: time.Now()}); changed {
		t.Error("ApplyToDetail() = true for repeated offline activity")
	}
}

func TestApplyToDetail_BridgelessLockIgnoresBridgeActivity(t *testing.T) {
	detail := &device.LockDetail{ID: "lock-1"}

	if changed := ApplyToDetail(detail, Activity{Kind: KindBridgeOnline, At: time.Now()}); changed {
		t.Error("ApplyToDetail() = true for bridge activity on bridgeless lock")
	}
}

func TestApplyToDetail_DoorbellMotion(t *testing.T) {
	detail := &device.DoorbellDetail{ID: "bell-1", ImageURL: "https://img/old.jpg"}

	changed := ApplyToDetail(detail, Activity{
		Kind:     KindDoorbellMotion,
		ImageURL: "https://img/new.jpg",
		At:       time.Now(),
	})

	if !changed || detail.ImageURL != "https://img/new.jpg" {
		t.Errorf("ImageURL = %q (changed %v), want new snapshot", detail.ImageURL, changed)
	}
}

func TestApplyToDetail_DingAlwaysNotifies(t *testing.T) {
	detail := &device.DoorbellDetail{ID: "bell-1"}

	if changed := ApplyToDetail(detail, Activity{Kind: KindDoorbellDing, At: time.Now()}); !changed {
		t.Error("ApplyToDetail() = false for ding, want notification")
	}
}

func TestApplyToDetail_KindMismatch(t *testing.T) {
	lock := &device.LockDetail{ID: "lock-1"}
	if changed := ApplyToDetail(lock, Activity{Kind: KindDoorbellMotion, ImageURL: "x", At: time.Now()}); changed {
		t.Error("doorbell activity changed a lock detail")
	}

	bell := &device.DoorbellDetail{ID: "bell-1"}
	if changed := ApplyToDetail(bell, Activity{Kind: KindLockOperation, LockStatus: "locked", At: time.Now()}); changed {
		t.Error("lock activity changed a doorbell detail")
	}
}
