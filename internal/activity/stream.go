package activity

import (
	"context"
	"sync"
	"time"
)

// houseActivityLimit is how many recent activities a debounced house
// refresh fetches from the backend.
const houseActivityLimit = 10

// houseFetchTimeout bounds a single debounced activity log poll.
const houseFetchTimeout = 30 * time.Second

// HouseActivityFetcher polls the backend activity log for a house.
// Implemented by the backend client.
type HouseActivityFetcher interface {
	GetHouseActivities(ctx context.Context, houseID string, limit int) ([]Activity, error)
}

// Logger is the minimal logging interface the stream needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Warn(msg string, args ...any)  {}

// Stream orders and deduplicates activities from both delivery paths.
//
// Push messages and activity log polls can report the same event, or report
// events out of order. For each device, the stream keeps the newest accepted
// timestamp per state class (lock, door, doorbell, bridge) and rejects
// anything that is not strictly newer. Accepted activities are handed to the
// onAccepted callback.
//
// ScheduleHouseRefresh debounces activity log polls: push events that only
// announce "something happened in this house" coalesce into one poll after
// the debounce window, and fetched activities flow back through the same
// acceptance gate so duplicates from push are dropped.
type Stream struct {
	fetcher    HouseActivityFetcher
	debounce   time.Duration
	onAccepted func(Activity)
	logger     Logger

	mu      sync.Mutex
	latest  map[string]map[string]time.Time
	timers  map[string]*time.Timer
	stopped bool

	wg sync.WaitGroup
}

// NewStream creates a stream. onAccepted is invoked synchronously from
// whichever goroutine accepted the activity; it must be safe for concurrent
// use and should not block.
func NewStream(fetcher HouseActivityFetcher, debounce time.Duration, onAccepted func(Activity), logger Logger) *Stream {
	if logger == nil {
		logger = noopLogger{}
	}
	if onAccepted == nil {
		onAccepted = func(Activity) {}
	}

	return &Stream{
		fetcher:    fetcher,
		debounce:   debounce,
		onAccepted: onAccepted,
		logger:     logger,
		latest:     make(map[string]map[string]time.Time),
		timers:     make(map[string]*time.Timer),
	}
}

// Accept offers an activity to the stream. Returns true when the activity
// is newer than everything previously accepted for its device and class,
// in which case onAccepted has been invoked.
func (s *Stream) Accept(act Activity) bool {
	if act.DeviceID == "" || act.At.IsZero() {
		return false
	}

	class := act.Kind.class()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}

	byClass, ok := s.latest[act.DeviceID]
	if !ok {
		byClass = make(map[string]time.Time)
		s.latest[act.DeviceID] = byClass
	}

	if !act.At.After(byClass[class]) {
		s.mu.Unlock()
		return false
	}
	byClass[class] = act.At
	s.mu.Unlock()

	s.onAccepted(act)
	return true
}

// Newest returns the newest accepted timestamp for a device's kind, or the
// zero time when nothing has been accepted.
func (s *Stream) Newest(deviceID string, kind Kind) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	byClass, ok := s.latest[deviceID]
	if !ok {
		return time.Time{}
	}
	return byClass[kind.class()]
}

// ScheduleHouseRefresh queues a debounced activity log poll for a house.
// Repeated calls within the debounce window collapse into one poll.
func (s *Stream) ScheduleHouseRefresh(houseID string) {
	if houseID == "" || s.fetcher == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if _, pending := s.timers[houseID]; pending {
		return
	}

	s.timers[houseID] = time.AfterFunc(s.debounce, func() {
		s.refreshHouse(houseID)
	})
}

// refreshHouse polls the activity log and feeds the results back through
// acceptance.
func (s *Stream) refreshHouse(houseID string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, houseID)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), houseFetchTimeout)
	defer cancel()

	activities, err := s.fetcher.GetHouseActivities(ctx, houseID, houseActivityLimit)
	if err != nil {
		s.logger.Warn("house activity refresh failed",
			"house_id", houseID,
			"error", err,
		)
		return
	}

	accepted := 0
	for _, act := range activities {
		if s.Accept(act) {
			accepted++
		}
	}

	s.logger.Debug("house activity refresh complete",
		"house_id", houseID,
		"fetched", len(activities),
		"accepted", accepted,
	)
}

// Stop cancels pending refreshes and waits for in-flight polls to finish.
// Safe to call multiple times.
func (s *Stream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for houseID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, houseID)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
