package device

import "time"

// LiveState is an ephemeral capture of the live fields on a lock detail.
//
// The poll API can return stale values for these fields when the push channel
// has already delivered something fresher. Callers capture before a refresh
// fetch and apply after it, only while the push connection is up; without this
// a routine poll can visibly revert lock or door state until the next event.
//
// The field set is declared statically and copied by value. A snapshot is
// owned by the refresh call that created it and discarded after Apply.
type LiveState struct {
	LockStatus        LockStatus
	LockStatusUpdated time.Time
	DoorState         DoorState
	DoorStateUpdated  time.Time

	// captured is false when the source detail carried no live fields
	// (doorbells and keypads); Apply is then a no-op.
	captured bool
}

// CaptureLiveState reads the live field set from a detail snapshot.
// Details without live fields yield an empty snapshot.
func CaptureLiveState(detail Detail) LiveState {
	lock, ok := detail.(*LockDetail)
	if !ok {
		return LiveState{}
	}
	return LiveState{
		LockStatus:        lock.LockStatus,
		LockStatusUpdated: lock.LockStatusUpdated,
		DoorState:         lock.DoorState,
		DoorStateUpdated:  lock.DoorStateUpdated,
		captured:          true,
	}
}

// Apply writes the captured live fields back onto a (typically freshly
// fetched) detail snapshot. No-op when nothing was captured or the target
// carries no live fields.
func (s LiveState) Apply(detail Detail) {
	if !s.captured {
		return
	}
	lock, ok := detail.(*LockDetail)
	if !ok {
		return
	}
	lock.LockStatus = s.LockStatus
	lock.LockStatusUpdated = s.LockStatusUpdated
	lock.DoorState = s.DoorState
	lock.DoorStateUpdated = s.DoorStateUpdated
}
