package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/keyline-core/internal/device"
)

// fakeFetcher returns canned activities and records calls.
type fakeFetcher struct {
	mu         sync.Mutex
	calls      int
	houses     []string
	activities []Activity
}

func (f *fakeFetcher) GetHouseActivities(ctx context.Context, houseID string, limit int) ([]Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.houses = append(f.houses, houseID)
	return f.activities, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func lockActivity(id string, at time.Time) Activity {
	return Activity{
		ID:         id,
		DeviceID:   "lock-1",
		HouseID:    "house-1",
		Kind:       KindLockOperation,
		Source:     SourcePush,
		At:         at,
		LockStatus: device.LockStatusLocked,
	}
}

func TestStream_AcceptRejectsOlderAndEqual(t *testing.T) {
	s := NewStream(nil, time.Millisecond, nil, nil)
	defer s.Stop()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if !s.Accept(lockActivity("a", base)) {
		t.Fatal("first activity rejected")
	}
	if s.Accept(lockActivity("b", base)) {
		t.Error("equal-timestamp activity accepted")
	}
	if s.Accept(lockActivity("c", base.Add(-time.Second))) {
		t.Error("older activity accepted")
	}
	if !s.Accept(lockActivity("d", base.Add(time.Second))) {
		t.Error("newer activity rejected")
	}
}

func TestStream_ClassesAreIndependent(t *testing.T) {
	s := NewStream(nil, time.Millisecond, nil, nil)
	defer s.Stop()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if !s.Accept(lockActivity("a", base)) {
		t.Fatal("lock activity rejected")
	}

	// A door event older than the lock event still lands: different class.
	door := Activity{
		ID:        "b",
		DeviceID:  "lock-1",
		Kind:      KindDoorOperation,
		At:        base.Add(-time.Minute),
		DoorState: device.DoorStateOpen,
	}
	if !s.Accept(door) {
		t.Error("door activity rejected because of unrelated lock timestamp")
	}
}

func TestStream_DevicesAreIndependent(t *testing.T) {
	s := NewStream(nil, time.Millisecond, nil, nil)
	defer s.Stop()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	a := lockActivity("a", base)
	b := lockActivity("b", base)
	b.DeviceID = "lock-2"

	if !s.Accept(a) || !s.Accept(b) {
		t.Error("same timestamp on different devices should both be accepted")
	}
}

func TestStream_AcceptInvokesCallback(t *testing.T) {
	var mu sync.Mutex
	var got []Activity

	s := NewStream(nil, time.Millisecond, func(act Activity) {
		mu.Lock()
		got = append(got, act)
		mu.Unlock()
	}, nil)
	defer s.Stop()

	base := time.Now()
	s.Accept(lockActivity("a", base))
	s.Accept(lockActivity("dup", base))

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Errorf("callback invoked %d times, want 1", len(got))
	}
}

func TestStream_Newest(t *testing.T) {
	s := NewStream(nil, time.Millisecond, nil, nil)
	defer s.Stop()

	if !s.Newest("lock-1", KindLockOperation).IsZero() {
		t.Error("Newest() non-zero before any acceptance")
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Accept(lockActivity("a", base))

	if got := s.Newest("lock-1", KindLockOperation); !got.Equal(base) {
		t.Errorf("Newest() = %v, want %v", got, base)
	}
}

func TestStream_RejectsIncompleteActivity(t *testing.T) {
	s := NewStream(nil, time.Millisecond, nil, nil)
	defer s.Stop()

	if s.Accept(Activity{Kind: KindLockOperation, At: time.Now()}) {
		t.Error("activity without device id accepted")
	}
	if s.Accept(Activity{DeviceID: "lock-1", Kind: KindLockOperation}) {
		t.Error("activity without timestamp accepted")
	}
}

func TestStream_ScheduleHouseRefreshDebounces(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := NewStream(fetcher, 20*time.Millisecond, nil, nil)
	defer s.Stop()

	s.ScheduleHouseRefresh("house-1")
	s.ScheduleHouseRefresh("house-1")
	s.ScheduleHouseRefresh("house-1")

	deadline := time.Now().Add(time.Second)
	for fetcher.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Allow any erroneous extra timers to fire.
	time.Sleep(50 * time.Millisecond)

	if got := fetcher.callCount(); got != 1 {
		t.Errorf("fetcher called %d times, want 1 debounced call", got)
	}
}

func TestStream_HouseRefreshFeedsAcceptance(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{activities: []Activity{
		lockActivity("from-poll", base),
		lockActivity("newer-from-poll", base.Add(time.Minute)),
	}}

	var mu sync.Mutex
	var accepted []string

	s := NewStream(fetcher, 10*time.Millisecond, func(act Activity) {
		mu.Lock()
		accepted = append(accepted, act.ID)
		mu.Unlock()
	}, nil)
	defer s.Stop()

	// Push already delivered the first event; the poll duplicate must drop.
	s.Accept(lockActivity("from-push", base))

	s.ScheduleHouseRefresh("house-1")

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		done := len(accepted) >= 2
		mu.Unlock()
		if done || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(accepted) != 2 {
		t.Fatalf("accepted %v, want push event plus one newer poll event", accepted)
	}
	if accepted[0] != "from-push" || accepted[1] != "newer-from-poll" {
		t.Errorf("accepted %v, want [from-push newer-from-poll]", accepted)
	}
}

func TestStream_StopIsIdempotent(t *testing.T) {
	s := NewStream(&fakeFetcher{}, time.Hour, nil, nil)

	s.ScheduleHouseRefresh("house-1")
	s.Stop()
	s.Stop()

	if s.Accept(lockActivity("a", time.Now())) {
		t.Error("Accept() succeeded after Stop()")
	}
	s.ScheduleHouseRefresh("house-2")
}
