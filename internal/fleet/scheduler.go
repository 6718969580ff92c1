package fleet

import (
	"context"
	"sync"
	"time"
)

// schedulerPoll bounds how long the scheduler sleeps when nothing is due.
// A subscription change wakes it immediately; this is only the ceiling.
const schedulerPoll = time.Minute

// Scheduler fires per-device refresh callbacks on a fixed interval.
//
// Subscriptions are explicit: Subscribe registers a device with its interval
// and callback, Unsubscribe removes it. One goroutine walks the table and
// invokes due callbacks sequentially, matching the one-in-flight-refresh
// rule the backend's rate limits impose. A slow callback delays later ones
// rather than overlapping them.
type Scheduler struct {
	logger Logger

	mu      sync.Mutex
	subs    map[string]*subscription
	stopped bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type subscription struct {
	interval time.Duration
	next     time.Time
	callback func(ctx context.Context)
}

// NewScheduler creates and starts a scheduler.
func NewScheduler(logger Logger) *Scheduler {
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger: logger,
		subs:   make(map[string]*subscription),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.run()
	return s
}

// Subscribe registers a callback fired every interval for the device.
// The first firing happens one interval from now, not immediately; initial
// hydration already produced a fresh snapshot. Re-subscribing an id
// replaces its interval and callback.
func (s *Scheduler) Subscribe(deviceID string, interval time.Duration, callback func(ctx context.Context)) {
	if deviceID == "" || interval <= 0 || callback == nil {
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.subs[deviceID] = &subscription{
		interval: interval,
		next:     time.Now().Add(interval),
		callback: callback,
	}
	s.mu.Unlock()

	s.notify()
}

// Unsubscribe removes a device's refresh timer. Unknown ids are a no-op.
func (s *Scheduler) Unsubscribe(deviceID string) {
	s.mu.Lock()
	delete(s.subs, deviceID)
	s.mu.Unlock()
}

// Count returns the number of active subscriptions.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Stop halts the scheduler and waits for any in-flight callback to return.
// Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.done
}

// notify wakes the run loop to re-evaluate the schedule.
func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(schedulerPoll)
	defer timer.Stop()

	for {
		s.fireDue()

		wait := s.untilNext()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// fireDue invokes every due callback sequentially.
func (s *Scheduler) fireDue() {
	now := time.Now()

	s.mu.Lock()
	var due []*subscription
	var ids []string
	for id, sub := range s.subs {
		if !sub.next.After(now) {
			sub.next = now.Add(sub.interval)
			due = append(due, sub)
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	for i, sub := range due {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Debug("scheduled refresh due", "device_id", ids[i])
		sub.callback(s.ctx)
	}
}

// untilNext returns the wait until the earliest subscription is due,
// capped at schedulerPoll.
func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	wait := schedulerPoll
	now := time.Now()
	for _, sub := range s.subs {
		if d := sub.next.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}
