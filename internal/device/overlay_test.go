package device

import (
	"testing"
	"time"
)

func TestCaptureLiveState_Lock(t *testing.T) {
	lockedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	openedAt := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)

	prior := &LockDetail{
		ID:                "lock-1",
		LockStatus:        LockStatusLocked,
		LockStatusUpdated: lockedAt,
		DoorState:         DoorStateOpen,
		DoorStateUpdated:  openedAt,
		BatteryLevel:      90,
	}

	snap := CaptureLiveState(prior)

	// A stale poll response: lock state regressed, battery fresher.
	fresh := &LockDetail{
		ID:                "lock-1",
		LockStatus:        LockStatusUnlocked,
		LockStatusUpdated: lockedAt.Add(-time.Hour),
		DoorState:         DoorStateClosed,
		DoorStateUpdated:  openedAt.Add(-time.Hour),
		BatteryLevel:      85,
	}
	snap.Apply(fresh)

	if fresh.LockStatus != LockStatusLocked {
		t.Errorf("LockStatus = %q, want restored %q", fresh.LockStatus, LockStatusLocked)
	}
	if !fresh.LockStatusUpdated.Equal(lockedAt) {
		t.Errorf("LockStatusUpdated = %v, want %v", fresh.LockStatusUpdated, lockedAt)
	}
	if fresh.DoorState != DoorStateOpen {
		t.Errorf("DoorState = %q, want restored %q", fresh.DoorState, DoorStateOpen)
	}
	if !fresh.DoorStateUpdated.Equal(openedAt) {
		t.Errorf("DoorStateUpdated = %v, want %v", fresh.DoorStateUpdated, openedAt)
	}

	// Non-live fields from the poll response must survive.
	if fresh.BatteryLevel != 85 {
		t.Errorf("BatteryLevel = %d, want poll value 85", fresh.BatteryLevel)
	}
}

func TestCaptureLiveState_DoorbellIsEmpty(t *testing.T) {
	snap := CaptureLiveState(&DoorbellDetail{ID: "bell-1", Status: "online"})

	fresh := &LockDetail{ID: "lock-1", LockStatus: LockStatusUnlocked}
	snap.Apply(fresh)

	if fresh.LockStatus != LockStatusUnlocked {
		t.Error("an empty snapshot must not modify the target detail")
	}
}

func TestLiveState_ApplyToDoorbellIsNoOp(t *testing.T) {
	snap := CaptureLiveState(&LockDetail{ID: "lock-1", LockStatus: LockStatusLocked})

	bell := &DoorbellDetail{ID: "bell-1", Status: "online"}
	snap.Apply(bell)

	if bell.Status != "online" {
		t.Error("Apply() must not touch details without live fields")
	}
}

func TestLiveState_ZeroValueApplyIsNoOp(t *testing.T) {
	var snap LiveState

	fresh := &LockDetail{ID: "lock-1", LockStatus: LockStatusJammed}
	snap.Apply(fresh)

	if fresh.LockStatus != LockStatusJammed {
		t.Error("zero-value snapshot must be a no-op")
	}
}
